package server

import (
	"encoding/json"
	"net/http"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeFieldErrors(w http.ResponseWriter, fields forms.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "validation failed",
		Fields: fields,
	})
}
