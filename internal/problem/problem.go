// Package problem writes RFC 7807 error bodies shared by every HTTP handler.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Detail is an RFC 7807 error body
type Detail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	AssetID  string `json:"asset_id,omitempty"`
}

// Write writes an RFC 7807 response for r
func Write(w http.ResponseWriter, r *http.Request, status int, detail, assetID string) {
	body := &Detail{
		Type:     fmt.Sprintf("about:blank#%d", status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
		AssetID:  assetID,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WantsHTML reports whether the client is a browser expecting a page
func WantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// LoginRequired sends browsers to the login page and answers API clients
// with a 401 problem body.
func LoginRequired(w http.ResponseWriter, r *http.Request) {
	if WantsHTML(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	Write(w, r, http.StatusUnauthorized, "Login required", "")
}
