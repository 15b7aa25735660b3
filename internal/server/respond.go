package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/listenlog/internal/models"
)

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

// writeJSON encodes v as the response body. Responses are per-user and never cached.
func writeJSON(w http.ResponseWriter, status int, v any) {
	noStore(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw sends an already encoded JSON body unchanged.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	noStore(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message, Code: code})
}
