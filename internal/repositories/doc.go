// Package repositories implements SQLite persistence for local client state.
//
// The backend owns all workflow data; what lives here is only the client's
// pointer into it. Repositories follow a shared idiom: soft deletes via
// deleted_at timestamps, queries that exclude deleted records by default, and
// atomic per-table sequence counters for stable human-readable ordering.
//
// Key Implementations:
//   - [WorkflowRepository] : the durable record of which workflow session this
//     profile is attached to, backing session recovery across restarts
//
// The [NextSequence] function atomically increments per-table sequence
// counters in dedicated sequence tables.
package repositories
