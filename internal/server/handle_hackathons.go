package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/catalog"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

type HackathonListResponse struct {
	Hackathons []studio.Hackathon `json:"hackathons"`
}

func handleListHackathons(cat Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cat.List(r.Context())
		if err != nil {
			clientFrom(r).logger.Error("listing hackathons", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if list == nil {
			list = []studio.Hackathon{}
		}
		writeJSON(w, http.StatusOK, HackathonListResponse{Hackathons: list})
	}
}

func handleGetHackathon(cat Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := cat.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hackathon not found")
			return
		}
		if err != nil {
			clientFrom(r).logger.Error("getting hackathon", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}
