package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
)

// New builds the backend's full route table over the given store.
func New(store *Store, logger *log.Logger) http.Handler {
	r := NewBasicRouter()
	r.Use(RequestLogger(logger))
	b := &backend{store: store}

	r.Handle(http.MethodPost, "/session/start", handle(b.startSession))
	r.Handle(http.MethodGet, "/session/{id}", handle(b.getSession))
	r.Handle(http.MethodPost, "/session/{id}/finalize", handle(b.finalizeSession))
	r.Handle(http.MethodDelete, "/session/{id}", handle(b.cancelSession))

	r.Handle(http.MethodPost, "/session/{id}/staging/list", handle(b.listRows))
	r.Handle(http.MethodPatch, "/session/{id}/staging/rows/{row}", handle(b.patchRow))
	r.Handle(http.MethodDelete, "/session/{id}/staging/rows/{row}", handle(b.deleteRow))
	r.Handle(http.MethodPost, "/session/{id}/staging/rows/{row}/select", handle(b.selectRow))
	r.Handle(http.MethodPost, "/session/{id}/staging/select", handle(b.selectRows))
	r.Handle(http.MethodPost, "/session/{id}/staging/retractions", handle(b.checkRetractions))

	r.Handle(http.MethodPost, "/session/{id}/match", handle(b.match))
	r.Handle(http.MethodPost, "/session/{id}/match/confirm", handle(b.confirmMatches))
	r.Handle(http.MethodPost, "/session/{id}/match/rematch", handle(b.rematch))

	r.Handle(http.MethodPost, "/session/{id}/import/identifiers", handle(b.importIdentifiers))
	r.Handle(http.MethodPost, "/session/{id}/import/collections", handle(b.importCollection))
	r.Handle(http.MethodPost, "/session/{id}/import/documents/upload", handle(b.uploadDocument))
	r.Handle(http.MethodPost, "/session/{id}/import/documents/extract", handle(b.extractDocument))
	r.Handle(http.MethodGet, "/session/{id}/import/documents/review", handle(b.reviewCandidates))
	r.Handle(http.MethodPost, "/session/{id}/import/documents/match", handle(b.matchCandidates))
	r.Handle(http.MethodPost, "/session/{id}/import/documents/confirm", handle(b.confirmCandidates))

	r.Handle(http.MethodPost, "/library/preview", handle(b.previewLibrary))
	r.Handle(http.MethodPost, "/library/create", handle(b.createLibrary))
	r.Handle(http.MethodGet, "/library/select", handle(b.selectLibrary))
	r.Handle(http.MethodGet, "/library", handle(b.listLibraries))
	r.Handle(http.MethodPost, "/library/edit/stage", handle(b.stageLibraryEdit))
	r.Handle(http.MethodPost, "/library/edit/commit", handle(b.commitLibraryEdit))
	r.Handle(http.MethodPost, "/library/discover", handle(b.discoverRelated))

	r.Handle(http.MethodGet, "/settings/integrations", handle(b.listIntegrations))
	r.Handle(http.MethodPost, "/settings/credentials", handle(b.submitCredentials))

	return r
}

type backend struct {
	store *Store
}

// handle adapts a value-or-error function into an http.Handler writing the
// JSON contract: the value on success, {"detail": ...} on failure.
func handle(fn func(r *http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		w.Write([]byte(`{}`))
		return
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest("malformed request body: %v", err)
	}
	return nil
}

func (b *backend) startSession(r *http.Request) (any, error) {
	var req struct {
		UseCase string `json:"use_case"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.StartSession(req.UseCase)
}

func (b *backend) getSession(r *http.Request) (any, error) {
	return b.store.GetSession(r.PathValue("id"))
}

func (b *backend) finalizeSession(r *http.Request) (any, error) {
	return nil, b.store.FinalizeSession(r.PathValue("id"))
}

func (b *backend) cancelSession(r *http.Request) (any, error) {
	return nil, b.store.CancelSession(r.PathValue("id"))
}

func (b *backend) listRows(r *http.Request) (any, error) {
	var req api.ListRowsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.ListRows(r.PathValue("id"), req)
}

func (b *backend) patchRow(r *http.Request) (any, error) {
	var req struct {
		Fields map[string]*string `json:"fields"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return nil, b.store.PatchRow(r.PathValue("id"), r.PathValue("row"), req.Fields)
}

func (b *backend) deleteRow(r *http.Request) (any, error) {
	return nil, b.store.DeleteRow(r.PathValue("id"), r.PathValue("row"))
}

func (b *backend) selectRow(r *http.Request) (any, error) {
	var req struct {
		Selected bool `json:"selected"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return nil, b.store.SelectRows(r.PathValue("id"), []string{r.PathValue("row")}, req.Selected)
}

func (b *backend) selectRows(r *http.Request) (any, error) {
	var req struct {
		StagingIDs []string `json:"staging_ids"`
		Selected   bool     `json:"selected"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return nil, b.store.SelectRows(r.PathValue("id"), req.StagingIDs, req.Selected)
}

func (b *backend) checkRetractions(r *http.Request) (any, error) {
	var req struct {
		StagingIDs []string `json:"staging_ids"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.CheckRetractions(r.PathValue("id"), req.StagingIDs)
}

func (b *backend) match(r *http.Request) (any, error) {
	var req struct {
		StagingIDs []string `json:"staging_ids"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.Match(r.PathValue("id"), req.StagingIDs)
}

func (b *backend) confirmMatches(r *http.Request) (any, error) {
	var req struct {
		StagingIDs []string `json:"staging_ids"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return nil, b.store.ConfirmMatches(r.PathValue("id"), req.StagingIDs)
}

func (b *backend) rematch(r *http.Request) (any, error) {
	var req struct {
		StagingID string `json:"staging_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.Rematch(r.PathValue("id"), req.StagingID)
}

func (b *backend) importIdentifiers(r *http.Request) (any, error) {
	var req struct {
		Identifiers []string `json:"identifiers"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	added, err := b.store.ImportIdentifiers(r.PathValue("id"), req.Identifiers)
	if err != nil {
		return nil, err
	}
	return map[string]int{"added": added}, nil
}

func (b *backend) importCollection(r *http.Request) (any, error) {
	var req struct {
		CollectionID string `json:"collection_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	added, err := b.store.ImportCollection(r.PathValue("id"), req.CollectionID)
	if err != nil {
		return nil, err
	}
	return map[string]int{"added": added}, nil
}

func (b *backend) uploadDocument(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, errBadRequest("malformed multipart body: %v", err)
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		return nil, errBadRequest("missing file field")
	}
	return b.store.UploadDocument(r.PathValue("id"), header.Filename)
}

func (b *backend) extractDocument(r *http.Request) (any, error) {
	var req struct {
		UploadID string `json:"upload_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	candidates, err := b.store.ExtractDocument(r.PathValue("id"), req.UploadID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"candidates": candidates}, nil
}

func (b *backend) reviewCandidates(r *http.Request) (any, error) {
	candidates, err := b.store.ReviewCandidates(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"candidates": candidates}, nil
}

func (b *backend) matchCandidates(r *http.Request) (any, error) {
	matched, unmatched, err := b.store.MatchCandidates(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	return map[string]int{"matched": matched, "unmatched": unmatched}, nil
}

func (b *backend) confirmCandidates(r *http.Request) (any, error) {
	var req struct {
		CandidateIDs []string `json:"candidate_ids"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	added, err := b.store.ConfirmCandidates(r.PathValue("id"), req.CandidateIDs)
	if err != nil {
		return nil, err
	}
	return map[string]int{"added": added}, nil
}

func (b *backend) previewLibrary(r *http.Request) (any, error) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.PreviewLibrary(req.SessionID)
}

func (b *backend) createLibrary(r *http.Request) (any, error) {
	var req struct {
		SessionID   string `json:"session_id"`
		Name        string `json:"name"`
		Path        string `json:"path"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.CreateLibrary(req.SessionID, req.Name, req.Path, req.Description)
}

func (b *backend) selectLibrary(r *http.Request) (any, error) {
	return b.store.SelectLibrary(r.URL.Query().Get("library_id"))
}

func (b *backend) listLibraries(r *http.Request) (any, error) {
	return b.store.ListLibraries(), nil
}

func (b *backend) stageLibraryEdit(r *http.Request) (any, error) {
	var req struct {
		LibraryID string `json:"library_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.StageLibraryEdit(req.LibraryID)
}

func (b *backend) commitLibraryEdit(r *http.Request) (any, error) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.CommitLibraryEdit(req.SessionID)
}

func (b *backend) discoverRelated(r *http.Request) (any, error) {
	var req struct {
		LibraryID string `json:"library_id"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return b.store.DiscoverRelated(req.LibraryID)
}

func (b *backend) listIntegrations(r *http.Request) (any, error) {
	return map[string]any{"integrations": b.store.ListIntegrations()}, nil
}

func (b *backend) submitCredentials(r *http.Request) (any, error) {
	var req struct {
		Provider string            `json:"provider"`
		Values   map[string]string `json:"values"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return nil, b.store.SubmitCredentials(req.Provider, req.Values)
}
