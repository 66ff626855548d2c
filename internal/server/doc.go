// Package server implements the reference curation backend the client talks
// to: an HTTP JSON API holding workflow sessions, staged rows, the metadata
// index, and persisted libraries in memory.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] with method-qualified patterns.
//
// # Reference Backend
//
// [New] wires every endpoint of the API contract over a [Store]. The store is
// deterministic: it seeds a fixed metadata index, reference-manager
// collections, and a retraction list, so the same requests always produce the
// same partitions. [Store.ExpireSession] and [Store.SetExtractionDown] flip
// failure modes that are otherwise hard to reproduce against a live service,
// which is what the end-to-end tests are built on.
//
// The serve command runs this backend standalone so the client can be
// exercised without any external service.
package server
