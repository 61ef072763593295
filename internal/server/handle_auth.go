package server

import (
	"errors"
	"net/http"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/otpinput"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

// AuthStepResponse tells the SPA where to navigate after an auth step.
type AuthStepResponse struct {
	Next    string          `json:"next"`
	Session SessionResponse `json:"session"`
}

type VerifyRequest struct {
	Code string `json:"code"`
	// Email defaults to the pending email, then the draft email.
	Email string `json:"email,omitempty"`
	// Flow defaults to the flow that requested the code.
	Flow Flow `json:"flow,omitempty" enum:"signup,signin"`
}

type OTPResponse struct {
	State  otpinput.State `json:"state"`
	Verify *VerifyOutcome `json:"verify,omitempty"`
}

// VerifyOutcome reports the verification triggered by completing the code.
type VerifyOutcome struct {
	OK    bool   `json:"ok"`
	Next  string `json:"next,omitempty"`
	Error string `json:"error,omitempty"`
}

func verifyPath(f Flow) string {
	if f == FlowSignIn {
		return "/verify-email-signin"
	}
	return "/verify-email-signup"
}

func handleSignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form forms.SignUp
		if err := readJSON(r, &form); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		form.Normalize()
		if !validateForm(w, form) {
			return
		}

		c := clientFrom(r)
		c.Session.SetProfileDraft(form.Draft())
		c.startFlow(FlowSignUp)
		if err := c.Auth.RequestCode(r.Context(), form.Email); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AuthStepResponse{Next: verifyPath(FlowSignUp), Session: c.state(c.Session.Snapshot())})
	}
}

func handleSignIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form forms.SignIn
		if err := readJSON(r, &form); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		form.Normalize()
		if !validateForm(w, form) {
			return
		}

		c := clientFrom(r)
		c.Session.SetProfileDraft(studio.ProfileDraft{Email: form.Email})
		c.startFlow(FlowSignIn)
		if err := c.Auth.RequestCode(r.Context(), form.Email); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AuthStepResponse{Next: verifyPath(FlowSignIn), Session: c.state(c.Session.Snapshot())})
	}
}

func handleVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := clientFrom(r)
		if err := c.verify(r.Context(), req.Flow, req.Email, req.Code); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AuthStepResponse{Next: "/home", Session: c.state(c.Session.Snapshot())})
	}
}

func handleResend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		if err := c.Auth.Resend(r.Context()); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.state(c.Session.Snapshot()))
	}
}

// handleSignOut always succeeds; the provider error is only logged by the
// controller.
func handleSignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := clientFrom(r)
		_ = c.Auth.SignOut(r.Context())
		c.startFlow("")
		writeJSON(w, http.StatusOK, AuthStepResponse{Next: "/", Session: c.state(c.Session.Snapshot())})
	}
}

func handleOTPState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, OTPResponse{State: clientFrom(r).otpState()})
	}
}

// handleOTPInput applies one input interaction. Completing the code runs
// the same verification as POST /auth/verify.
func handleOTPInput() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OTPInputRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := clientFrom(r)
		state, code, err := c.inputOTP(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp := OTPResponse{State: state}
		if code != "" {
			out := &VerifyOutcome{OK: true, Next: "/home"}
			if err := c.verify(r.Context(), "", "", code); err != nil {
				_, msg := authErrorStatus(err)
				out = &VerifyOutcome{Error: msg}
			}
			resp.Verify = out
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func validateForm(w http.ResponseWriter, form any) bool {
	err := forms.Validate(form)
	if err == nil {
		return true
	}
	var fields forms.Errors
	if errors.As(err, &fields) {
		writeFieldErrors(w, fields)
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return false
}

func writeAuthError(w http.ResponseWriter, err error) {
	status, msg := authErrorStatus(err)
	writeError(w, status, msg)
}

func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCodeFormat):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, auth.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrNoPendingEmail):
		return http.StatusConflict, err.Error()
	}

	var perr *identity.Error
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, identity.Message(err)
	}
	switch perr.Code {
	case identity.CodeInvalidEmail:
		return http.StatusUnprocessableEntity, perr.Message
	case identity.CodeInvalidCode, identity.CodeExpiredCode:
		return http.StatusUnauthorized, perr.Message
	case identity.CodeTooManyAttempts:
		return http.StatusTooManyRequests, perr.Message
	case identity.CodeUnavailable:
		return http.StatusServiceUnavailable, perr.Message
	}
	return http.StatusBadRequest, perr.Message
}
