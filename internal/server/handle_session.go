package server

import (
	"net/http"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

type NoticesResponse struct {
	Notices []auth.Notice `json:"notices"`
}

type SelectRoleRequest struct {
	Role string `json:"role" enum:"participant,coordinator,judge"`
}

func handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		writeJSON(w, http.StatusOK, c.state(c.Session.Snapshot()))
	}
}

// handleRoute resolves a SPA path against the current session.
func handleRoute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			path = "/"
		}
		writeJSON(w, http.StatusOK, route.Resolve(clientFrom(r).Session.Snapshot(), path))
	}
}

func handleNotices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, NoticesResponse{Notices: clientFrom(r).drainNotices()})
	}
}

func handleSelectRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRoleRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		role, err := studio.ParseRole(req.Role)
		if err != nil {
			writeFieldErrors(w, forms.Errors{"role": "Please select a role"})
			return
		}

		c := clientFrom(r)
		c.Session.SetSelectedRole(&role)
		writeJSON(w, http.StatusOK, c.state(c.Session.Snapshot()))
	}
}
