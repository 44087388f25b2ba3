package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	req := httptest.NewRequest("GET", "/assets/Cu_x", nil)
	w := httptest.NewRecorder()

	Write(w, req, http.StatusConflict, "AssetID already exists", "Cu_x")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var body Detail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "about:blank#409", body.Type)
	assert.Equal(t, "Conflict", body.Title)
	assert.Equal(t, "/assets/Cu_x", body.Instance)
	assert.Equal(t, "Cu_x", body.AssetID)
}

func TestLoginRequired(t *testing.T) {
	tests := []struct {
		name     string
		accept   string
		code     int
		location string
	}{
		{"browser", "text/html,application/xhtml+xml", http.StatusSeeOther, "/login"},
		{"api client", "application/json", http.StatusUnauthorized, ""},
		{"no accept header", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/imports/excel", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()

			LoginRequired(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}
