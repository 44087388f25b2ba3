package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/problem"
	"powder-inventory/internal/registry"
	"powder-inventory/pkg/importer"
)

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Registry    importer.Registry
	Gate        *auth.Gate
	Logger      *slog.Logger
	MaxBytes    int64
	MappingPath string
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(reg importer.Registry, gate *auth.Gate, mappingPath string, logger *slog.Logger) *ImportsHandler {
	if mappingPath == "" {
		mappingPath = importer.DefaultMappingPath
	}
	return &ImportsHandler{
		Registry:    reg,
		Gate:        gate,
		Logger:      logger,
		MaxBytes:    20 << 20, // 20 MB
		MappingPath: mappingPath,
	}
}

// UploadExcel registers every row of an uploaded workbook as the session user
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	if err := h.Gate.Allow(actor); err != nil {
		problem.LoginRequired(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		problem.Write(w, r, http.StatusBadRequest, "content-type must be multipart/form-data", "")
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error(), "")
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, "file is required: "+err.Error(), "")
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		problem.Write(w, r, http.StatusBadRequest, "only .xlsx files are accepted", "")
		return
	}

	sum, impErr := importer.ImportExcel(r.Context(), h.Registry, file, importer.ImportOptions{
		Actor:       actor,
		UpdatedBy:   r.FormValue("updated_by"),
		MappingPath: h.MappingPath,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
	})
	if impErr != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(impErr, registry.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.Logger.Warn("import failed", "file", header.Filename, "user", actor.Email, "error", impErr)
		writeJSON(w, status, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum,
		})
		return
	}

	h.Logger.Info("import complete",
		"file", header.Filename,
		"user", actor.Email,
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"errors", sum.Errors,
		"dry_run", sum.DryRun,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
