package route

import (
	"testing"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/session"
)

func TestGateIsTotal(t *testing.T) {
	tests := []struct {
		loading, authenticated bool
		want                   Set
	}{
		{loading: true, authenticated: true, want: SetLoading},
		{loading: true, authenticated: false, want: SetLoading},
		{loading: false, authenticated: true, want: SetAuthenticated},
		{loading: false, authenticated: false, want: SetUnauthenticated},
	}

	for _, tt := range tests {
		snap := session.Snapshot{Loading: tt.loading, IsAuthenticated: tt.authenticated}
		if got := Gate(snap); got != tt.want {
			t.Errorf("Gate(loading=%v, auth=%v) = %v, want %v", tt.loading, tt.authenticated, got, tt.want)
		}
	}
}

func TestGateIgnoresOnboarding(t *testing.T) {
	snap := session.Snapshot{IsAuthenticated: true, HasCompletedOnboarding: false}
	if got := Gate(snap); got != SetAuthenticated {
		t.Fatalf("Gate = %v, want authenticated", got)
	}
}

func TestResolve(t *testing.T) {
	authed := session.Snapshot{IsAuthenticated: true}
	anon := session.Snapshot{}

	tests := []struct {
		name         string
		snap         session.Snapshot
		path         string
		wantScreen   Screen
		wantRedirect string
		wantParam    string
	}{
		{name: "loading short circuits", snap: session.Snapshot{Loading: true, IsAuthenticated: true}, path: "/home", wantScreen: ScreenLoading},
		{name: "root is home when signed in", snap: authed, path: "/", wantScreen: ScreenHome},
		{name: "hackathon detail captures id", snap: authed, path: "/hackathon/2", wantScreen: ScreenHackathonDetails, wantParam: "2"},
		{name: "trailing slash", snap: authed, path: "/registration/preview/", wantScreen: ScreenRegistrationPreview},
		{name: "authed catch-all", snap: authed, path: "/signup", wantScreen: ScreenHome, wantRedirect: "/home"},
		{name: "root is splash when signed out", snap: anon, path: "/", wantScreen: ScreenSplash},
		{name: "verify screen", snap: anon, path: "/verify-email-signin", wantScreen: ScreenVerifySignIn},
		{name: "anon catch-all", snap: anon, path: "/home", wantScreen: ScreenSplash, wantRedirect: "/"},
		{name: "empty id does not match", snap: authed, path: "/hackathon/", wantScreen: ScreenHome, wantRedirect: "/home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.snap, tt.path)
			if d.Screen != tt.wantScreen {
				t.Errorf("screen = %q, want %q", d.Screen, tt.wantScreen)
			}
			if d.Redirect != tt.wantRedirect {
				t.Errorf("redirect = %q, want %q", d.Redirect, tt.wantRedirect)
			}
			if tt.wantParam != "" && d.Params["id"] != tt.wantParam {
				t.Errorf("id = %q, want %q", d.Params["id"], tt.wantParam)
			}
		})
	}
}

func TestRouteSetsAreDisjointByScreen(t *testing.T) {
	seen := make(map[Screen]Set)
	for _, set := range []Set{SetAuthenticated, SetUnauthenticated} {
		for _, rt := range Routes(set) {
			if other, ok := seen[rt.Screen]; ok && other != set {
				t.Errorf("screen %q appears in %v and %v", rt.Screen, other, set)
			}
			seen[rt.Screen] = set
		}
	}
	if Routes(SetLoading) != nil {
		t.Error("loading set should have no routes")
	}
}
