package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/forms"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/handler/health"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries one message per invalid form field.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// HealthResponse documents /healthz, served by the health handler.
type HealthResponse map[string]health.Result

type routeQuery struct {
	Path string `query:"path" description:"SPA path to resolve, defaults to /"`
}

type hackathonPath struct {
	ID string `path:"id"`
}

type personalQuery struct {
	HackathonID string `query:"hackathonId"`
}

type op struct {
	method, path, summary, description string
	req                                any
	resp                               []resp
}

type resp struct {
	body        any
	status      int
	contentType string
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Studio Hackathon Hub API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session, sign-in and registration flow for the Studio hackathon app. " +
		"Every /api route is scoped to the browsing context named by the studio_client cookie.")

	gated := []resp{
		{body: ErrorResponse{}, status: http.StatusUnauthorized},
		{body: ErrorResponse{}, status: http.StatusConflict},
	}

	ops := []op{
		{
			method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Returns the health status of backend dependencies.",
			resp: []resp{
				{body: HealthResponse{}, status: http.StatusOK},
				{body: HealthResponse{}, status: http.StatusServiceUnavailable},
			},
		},
		{
			method: http.MethodGet, path: "/api/session", summary: "Current session",
			description: "Returns the session snapshot and the route set the gate selects for it.",
			resp:        []resp{{body: SessionResponse{}, status: http.StatusOK}},
		},
		{
			method: http.MethodGet, path: "/api/route", summary: "Resolve route",
			description: "Maps a SPA path to a screen. Unknown paths redirect to the set's catch-all.",
			req:         routeQuery{},
			resp:        []resp{{body: route.Decision{}, status: http.StatusOK}},
		},
		{
			method: http.MethodGet, path: "/api/notices", summary: "Drain notices",
			description: "Returns and clears the queued toast notices.",
			resp:        []resp{{body: NoticesResponse{}, status: http.StatusOK}},
		},
		{
			method: http.MethodGet, path: "/api/events", summary: "SSE event stream",
			description: "Server-Sent Events stream of session, notice and otp updates. Each data line is a StreamEvent.",
			resp:        []resp{{status: http.StatusOK, contentType: "text/event-stream"}},
		},
		{
			method: http.MethodGet, path: "/api/ws", summary: "WebSocket event stream",
			description: "Upgrades to a WebSocket that pushes StreamEvent messages and accepts OTPInputRequest messages.",
			resp:        []resp{{status: http.StatusSwitchingProtocols, contentType: "text/plain"}},
		},
		{
			method: http.MethodPost, path: "/api/onboarding/role", summary: "Select role",
			req: SelectRoleRequest{},
			resp: []resp{
				{body: SessionResponse{}, status: http.StatusOK},
				{body: ValidationErrorResponse{}, status: http.StatusUnprocessableEntity},
			},
		},
		{
			method: http.MethodPost, path: "/api/auth/signup", summary: "Sign up",
			description: "Saves the profile draft and requests a verification code.",
			req:         forms.SignUp{},
			resp:        authResponses(),
		},
		{
			method: http.MethodPost, path: "/api/auth/signin", summary: "Sign in",
			description: "Requests a verification code for an existing email.",
			req:         forms.SignIn{},
			resp:        authResponses(),
		},
		{
			method: http.MethodPost, path: "/api/auth/verify", summary: "Verify code",
			description: "Verifies the code for the pending email. A sign-up also completes onboarding.",
			req:         VerifyRequest{},
			resp:        authResponses(),
		},
		{
			method: http.MethodPost, path: "/api/auth/resend", summary: "Resend code",
			description: "Requests a fresh code for the pending email. Does nothing in dev mode.",
			resp: []resp{
				{body: SessionResponse{}, status: http.StatusOK},
				{body: ErrorResponse{}, status: http.StatusConflict},
				{body: ErrorResponse{}, status: http.StatusServiceUnavailable},
			},
		},
		{
			method: http.MethodPost, path: "/api/auth/signout", summary: "Sign out",
			description: "Ends the session. Local auth state is cleared even if the provider call fails.",
			resp:        []resp{{body: AuthStepResponse{}, status: http.StatusOK}},
		},
		{
			method: http.MethodGet, path: "/api/auth/otp", summary: "Code input state",
			resp: []resp{{body: OTPResponse{}, status: http.StatusOK}},
		},
		{
			method: http.MethodPost, path: "/api/auth/otp", summary: "Code input interaction",
			description: "Applies one keystroke, paste or focus change. Completing the code verifies it.",
			req:         OTPInputRequest{},
			resp: []resp{
				{body: OTPResponse{}, status: http.StatusOK},
				{body: ErrorResponse{}, status: http.StatusBadRequest},
			},
		},
		{
			method: http.MethodGet, path: "/api/hackathons", summary: "List hackathons",
			resp: append([]resp{{body: HackathonListResponse{}, status: http.StatusOK}}, gated...),
		},
		{
			method: http.MethodGet, path: "/api/hackathons/{id}", summary: "Get hackathon",
			req: hackathonPath{},
			resp: append([]resp{
				{body: studio.Hackathon{}, status: http.StatusOK},
				{body: ErrorResponse{}, status: http.StatusNotFound},
			}, gated...),
		},
		{
			method: http.MethodGet, path: "/api/registration/personal", summary: "Personal details form",
			description: "Returns the saved stage 1 record, or defaults from the session.",
			req:         personalQuery{},
			resp:        append([]resp{{body: PersonalFormResponse{}, status: http.StatusOK}}, gated...),
		},
		{
			method: http.MethodPost, path: "/api/registration/personal", summary: "Save personal details",
			req: studio.PersonalRecord{},
			resp: append([]resp{
				{body: PersonalSavedResponse{}, status: http.StatusOK},
				{body: ValidationErrorResponse{}, status: http.StatusUnprocessableEntity},
			}, gated...),
		},
		{
			method: http.MethodPost, path: "/api/registration/education", summary: "Save education",
			description: "Merges education with the saved personal details. 409 when personal details are missing.",
			req:         studio.Education{},
			resp: append([]resp{
				{body: EducationSavedResponse{}, status: http.StatusOK},
				{body: ValidationErrorResponse{}, status: http.StatusUnprocessableEntity},
			}, gated...),
		},
		{
			method: http.MethodGet, path: "/api/registration/preview", summary: "Registration preview",
			description: "202 with loading=true until the complete record exists.",
			resp: append([]resp{
				{body: PreviewResponse{}, status: http.StatusOK},
				{body: PreviewResponse{}, status: http.StatusAccepted},
			}, gated...),
		},
		{
			method: http.MethodPost, path: "/api/registration/submit", summary: "Submit registration",
			description: "Submits the complete record. Saved stages are cleared whether or not submission succeeds.",
			resp: append([]resp{
				{body: SubmitResponse{}, status: http.StatusOK},
				{body: ErrorResponse{}, status: http.StatusBadGateway},
			}, gated...),
		},
	}

	for _, o := range ops {
		oc, _ := r.NewOperationContext(o.method, o.path)
		oc.SetSummary(o.summary)
		if o.description != "" {
			oc.SetDescription(o.description)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		for _, rs := range o.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(rs.status)}
			if rs.contentType != "" {
				opts = append(opts, openapi.WithContentType(rs.contentType))
			}
			oc.AddRespStructure(rs.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func authResponses() []resp {
	return []resp{
		{body: AuthStepResponse{}, status: http.StatusOK},
		{body: ErrorResponse{}, status: http.StatusUnauthorized},
		{body: ErrorResponse{}, status: http.StatusConflict},
		{body: ValidationErrorResponse{}, status: http.StatusUnprocessableEntity},
		{body: ErrorResponse{}, status: http.StatusTooManyRequests},
		{body: ErrorResponse{}, status: http.StatusServiceUnavailable},
	}
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
