package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit  int
	offset int
	q      string
}

// parseListParams parses limit, offset and q from the request.
// Defaults: limit=0 (no limit), offset=0
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 0
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:  limit,
		offset: offset,
		q:      strings.TrimSpace(values.Get("q")),
	}
}

// filterIDs keeps identifiers containing q, case-insensitively
func filterIDs(ids []string, q string) []string {
	if q == "" {
		return ids
	}
	q = strings.ToLower(q)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id), q) {
			out = append(out, id)
		}
	}
	return out
}

// page applies offset and limit to ids
func page(ids []string, params listParams) []string {
	if params.offset >= len(ids) {
		return []string{}
	}
	ids = ids[params.offset:]
	if params.limit > 0 && params.limit < len(ids) {
		ids = ids[:params.limit]
	}
	return ids
}

// listResponse is the envelope returned by list endpoints
type listResponse struct {
	Data []string `json:"data"`
	Meta listMeta `json:"meta"`
}

type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// sendListResponse writes the page of ids along with the filtered total
func sendListResponse(w http.ResponseWriter, ids []string, total int, params listParams) {
	w.Header().Set("Content-Type", "application/json")
	resp := listResponse{
		Data: ids,
		Meta: listMeta{Total: total, Limit: params.limit, Offset: params.offset},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
