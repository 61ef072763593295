package server

import (
	"errors"
	"net/http"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/wizard"
)

type PersonalFormResponse struct {
	Values studio.PersonalRecord `json:"values"`
	// Saved is false when Values are defaults rather than a written stage.
	Saved bool `json:"saved"`
}

type PersonalSavedResponse struct {
	Next   string                `json:"next"`
	Record studio.PersonalRecord `json:"record"`
}

type EducationSavedResponse struct {
	Next         string              `json:"next"`
	Registration studio.Registration `json:"registration"`
}

type PreviewResponse struct {
	Loading      bool                 `json:"loading"`
	Registration *studio.Registration `json:"registration,omitempty"`
}

type SubmitResponse struct {
	Next    string         `json:"next"`
	Receipt wizard.Receipt `json:"receipt"`
}

// handleGetPersonal returns the stage 1 record, or defaults taken from
// the session when none was written.
func handleGetPersonal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		rec, ok, err := c.Wizard.Personal(r.Context())
		if err != nil {
			c.logger.Error("reading personal details", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, PersonalFormResponse{Values: rec, Saved: true})
			return
		}

		hackathonID := r.URL.Query().Get("hackathonId")
		if hackathonID == "" {
			hackathonID = wizard.DefaultHackathonID
		}
		writeJSON(w, http.StatusOK, PersonalFormResponse{Values: studio.PersonalRecord{
			PersonalDetails: wizard.PersonalDefaults(c.Session.Snapshot()),
			HackathonID:     hackathonID,
		}})
	}
}

func handleSubmitPersonal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studio.PersonalRecord
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := clientFrom(r)
		rec, err := c.Wizard.SubmitPersonal(r.Context(), req.HackathonID, req.PersonalDetails)
		if err != nil {
			writeWizardError(w, c, err)
			return
		}
		writeJSON(w, http.StatusOK, PersonalSavedResponse{Next: "/registration/education", Record: rec})
	}
}

func handleSubmitEducation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studio.Education
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := clientFrom(r)
		reg, err := c.Wizard.SubmitEducation(r.Context(), req)
		if err != nil {
			writeWizardError(w, c, err)
			return
		}
		writeJSON(w, http.StatusOK, EducationSavedResponse{Next: "/registration/preview", Registration: reg})
	}
}

// handlePreview answers 202 with loading=true until stage 2 was written.
func handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		reg, ok, err := c.Wizard.Preview(r.Context())
		if err != nil {
			c.logger.Error("reading registration", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeJSON(w, http.StatusAccepted, PreviewResponse{Loading: true})
			return
		}
		writeJSON(w, http.StatusOK, PreviewResponse{Registration: &reg})
	}
}

func handleSubmitRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		receipt, err := c.Wizard.Submit(r.Context())
		if err != nil {
			writeWizardError(w, c, err)
			return
		}
		writeJSON(w, http.StatusOK, SubmitResponse{Next: "/registration/success", Receipt: receipt})
	}
}

func writeWizardError(w http.ResponseWriter, c *Client, err error) {
	var fields forms.Errors
	switch {
	case errors.As(err, &fields):
		writeFieldErrors(w, fields)
	case errors.Is(err, wizard.ErrUnknownHackathon):
		writeFieldErrors(w, forms.Errors{"hackathonId": "Please choose an existing hackathon"})
	case errors.Is(err, wizard.ErrPersonalMissing):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrNotReady):
		writeError(w, http.StatusConflict, err.Error())
	default:
		c.logger.Error("registration step failed", "error", err)
		writeError(w, http.StatusBadGateway, "registration failed, please try again")
	}
}
