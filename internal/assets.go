package internal

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/models"
	"powder-inventory/internal/problem"
	"powder-inventory/internal/registry"

	"github.com/go-chi/chi/v5"
)

// assetIDFromRequest reads the identifier from the asset_id query parameter
// or the wildcard path segment. Identifiers may contain spaces and slashes.
func assetIDFromRequest(r *http.Request) string {
	if q := r.URL.Query().Get("asset_id"); q != "" {
		return strings.TrimSpace(q)
	}
	raw := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	}
	return strings.TrimSpace(raw)
}

// decodeSubmission reads the nine fields and updated_by from a JSON body or
// from form values
func decodeSubmission(r *http.Request) (models.Fields, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req models.CreateAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return models.Fields{}, "", err
		}
		return req.Fields, req.UpdatedBy, nil
	}

	if err := r.ParseForm(); err != nil {
		return models.Fields{}, "", err
	}
	var values [models.FieldCount]string
	for i, name := range models.FieldNames {
		values[i] = r.PostForm.Get(name)
	}
	return models.FieldsFromValues(values), r.PostForm.Get("updated_by"), nil
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeRegistryError maps registry errors onto HTTP responses
func (s *Server) writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *registry.ConflictError
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		problem.LoginRequired(w, r)
	case errors.As(err, &conflict):
		problem.Write(w, r, http.StatusConflict, "AssetID already exists", conflict.AssetID)
	case errors.Is(err, registry.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, "AssetID not found", "")
	case errors.Is(err, registry.ErrUnavailable):
		s.Logger.Error("asset store unavailable", "path", r.URL.Path, "error", err)
		problem.Write(w, r, http.StatusServiceUnavailable, "The asset sheet is unavailable. Please try again later.", "")
	default:
		s.Logger.Error("internal server error", "path", r.URL.Path, "error", err)
		problem.Write(w, r, http.StatusInternalServerError, "An unexpected error occurred.", "")
	}
}

// getMe returns the session identity
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if err := s.Gate.Allow(id); err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// listAssets handles identifier listing with optional filter and pagination
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	ids, err := s.Registry.ListIdentifiers(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	ids = filterIDs(ids, params.q)
	sendListResponse(w, page(ids, params), len(ids), params)
}

// getAsset handles reading a single asset
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id := assetIDFromRequest(r)
	if id == "" {
		problem.Write(w, r, http.StatusBadRequest, "asset id is required", "")
		return
	}

	rec, err := s.Registry.ReadRecord(r.Context(), id, auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// createAsset handles a new-asset submission
func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	fields, updatedBy, err := decodeSubmission(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, "invalid request body", "")
		return
	}

	id, err := s.Registry.CreateRecord(r.Context(), fields, updatedBy, auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	w.Header().Set("Location", "/assets/?asset_id="+url.QueryEscape(id))
	writeJSON(w, http.StatusCreated, map[string]string{"asset_id": id})
}

// updateAsset handles an edit submission
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	existing := assetIDFromRequest(r)
	if existing == "" {
		problem.Write(w, r, http.StatusBadRequest, "asset id is required", "")
		return
	}

	fields, updatedBy, err := decodeSubmission(r)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, "invalid request body", "")
		return
	}

	id, err := s.Registry.UpdateRecord(r.Context(), existing, fields, updatedBy, auth.IdentityFromContext(r.Context()))
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}

	w.Header().Set("Location", "/assets/?asset_id="+url.QueryEscape(id))
	writeJSON(w, http.StatusOK, map[string]string{
		"asset_id":          id,
		"previous_asset_id": existing,
	})
}
