// Package route decides which screen a browsing context sees.
//
// Gate never reads HasCompletedOnboarding; screens that care read it from
// the snapshot themselves.
package route

import (
	"fmt"
	"strings"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
)

type Set int

const (
	SetLoading Set = iota
	SetAuthenticated
	SetUnauthenticated
)

func (s Set) String() string {
	switch s {
	case SetLoading:
		return "loading"
	case SetAuthenticated:
		return "authenticated"
	case SetUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

func (s Set) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Set) UnmarshalText(text []byte) error {
	for _, v := range []Set{SetLoading, SetAuthenticated, SetUnauthenticated} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown route set %q", text)
}

type Screen string

const (
	ScreenLoading Screen = "loading"

	ScreenHome                  Screen = "home"
	ScreenHackathonDetails      Screen = "hackathon-details"
	ScreenRegistrationPersonal  Screen = "registration-personal"
	ScreenRegistrationEducation Screen = "registration-education"
	ScreenRegistrationPreview   Screen = "registration-preview"
	ScreenRegistrationSuccess   Screen = "registration-success"

	ScreenSplash       Screen = "splash"
	ScreenOnboarding   Screen = "onboarding"
	ScreenSelectRole   Screen = "select-role"
	ScreenStart        Screen = "start"
	ScreenSignUp       Screen = "signup"
	ScreenVerifySignUp Screen = "verify-email-signup"
	ScreenSignIn       Screen = "signin"
	ScreenVerifySignIn Screen = "verify-email-signin"
)

type Route struct {
	Pattern string
	Screen  Screen
}

var authenticatedRoutes = []Route{
	{"/", ScreenHome},
	{"/home", ScreenHome},
	{"/hackathon/{id}", ScreenHackathonDetails},
	{"/registration", ScreenRegistrationPersonal},
	{"/registration/education", ScreenRegistrationEducation},
	{"/registration/preview", ScreenRegistrationPreview},
	{"/registration/success", ScreenRegistrationSuccess},
}

var unauthenticatedRoutes = []Route{
	{"/", ScreenSplash},
	{"/onboarding", ScreenOnboarding},
	{"/select-role", ScreenSelectRole},
	{"/start", ScreenStart},
	{"/signup", ScreenSignUp},
	{"/verify-email-signup", ScreenVerifySignUp},
	{"/signin", ScreenSignIn},
	{"/verify-email-signin", ScreenVerifySignIn},
}

// Gate selects the route set for snap. Loading wins over everything;
// IsAuthenticated is only consulted once loading is false.
func Gate(snap session.Snapshot) Set {
	if snap.Loading {
		return SetLoading
	}
	if snap.IsAuthenticated {
		return SetAuthenticated
	}
	return SetUnauthenticated
}

// Routes lists the routes of set. The loading set has none.
func Routes(set Set) []Route {
	switch set {
	case SetAuthenticated:
		return authenticatedRoutes
	case SetUnauthenticated:
		return unauthenticatedRoutes
	}
	return nil
}

// fallback is where the catch-all of each set redirects.
func fallback(set Set) string {
	if set == SetAuthenticated {
		return "/home"
	}
	return "/"
}

type Decision struct {
	Set      Set               `json:"set"`
	Screen   Screen            `json:"screen"`
	Pattern  string            `json:"pattern,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Resolve maps path to a screen within the set chosen by Gate. Unknown
// paths resolve to the set's catch-all screen with a redirect.
func Resolve(snap session.Snapshot, path string) Decision {
	set := Gate(snap)
	if set == SetLoading {
		return Decision{Set: set, Screen: ScreenLoading}
	}

	for _, rt := range Routes(set) {
		if params, ok := match(rt.Pattern, path); ok {
			return Decision{Set: set, Screen: rt.Screen, Pattern: rt.Pattern, Params: params}
		}
	}

	to := fallback(set)
	d := Decision{Set: set, Redirect: to}
	for _, rt := range Routes(set) {
		if rt.Pattern == to {
			d.Screen = rt.Screen
			break
		}
	}
	return d
}

// match compares pattern and path segment by segment. A segment written
// as {name} matches any non-empty segment and is captured.
func match(pattern, path string) (map[string]string, bool) {
	ps := splitPath(pattern)
	xs := splitPath(path)
	if len(ps) != len(xs) {
		return nil, false
	}

	var params map[string]string
	for i, p := range ps {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = xs[i]
			continue
		}
		if p != xs[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
