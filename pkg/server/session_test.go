package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/browser"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/catalog"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/store"
)

func sessionCookie(t *testing.T, s *Sessions, id *identity.Identity) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	s.SetSession(rec, id)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected one cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessions([]byte("test-key"))
	in := &identity.Identity{Uid: "u1", Email: "u@x", Name: "U"}

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(sessionCookie(t, s, in))

	got := s.FromRequest(req)
	if got == nil {
		t.Fatal("Expected identity from verified cookie")
	}
	if got.Uid != in.Uid || got.Email != in.Email || got.Name != in.Name {
		t.Errorf("Expected %+v, got %+v", in, got)
	}
}

func TestSessionRejectsMissingAndTamperedTokens(t *testing.T) {
	s := NewSessions([]byte("test-key"))

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if s.FromRequest(req) != nil {
		t.Error("Expected nil identity without a cookie")
	}

	other := NewSessions([]byte("other-key"))
	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(sessionCookie(t, other, &identity.Identity{Uid: "u1"}))
	if s.FromRequest(req) != nil {
		t.Error("Expected nil identity for a token signed with another key")
	}

	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "not-a-token"})
	if s.FromRequest(req) != nil {
		t.Error("Expected nil identity for a garbage token")
	}
}

func newTestWebServer(t *testing.T) (*WebServer, *identity.Mock) {
	t.Helper()
	ms := store.NewMemoryStore()
	ms.Seed(store.DefaultCollection, []*catalog.Item{
		{Id: "drop-001", Title: "Alpha", Url: "https://sey.example/a", LastSeen: "2025-08-15 10:00:00+0000", InStock: true},
	})
	mock := identity.NewMock()
	app := browser.New(browser.Options{
		CatalogStore: ms,
		StateStore:   ms,
		Provider:     mock,
		PageSize:     10,
	})
	if _, err := app.LoadNextPage(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &WebServer{App: app, Sessions: NewSessions([]byte("test-key"))}, mock
}

func TestToggleRequiresVerifiedCookie(t *testing.T) {
	ws, mock := newTestWebServer(t)
	mock.SetIdentity(&identity.Identity{Uid: "u1", Email: "u@x"})
	mux := ws.ClientHandler()

	req := httptest.NewRequest(http.MethodPost, "/drop/drop-001/tried", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a session cookie, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/drop/drop-001/tried", strings.NewReader("{}"))
	req.AddCookie(sessionCookie(t, ws.Sessions, &identity.Identity{Uid: "u1", Email: "u@x"}))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with a verified cookie, got %d", rec.Code)
	}
}

func TestTriedListRequiresVerifiedCookie(t *testing.T) {
	ws, mock := newTestWebServer(t)
	mock.SetIdentity(&identity.Identity{Uid: "u1", Email: "u@x"})
	mux := ws.ClientHandler()

	req := httptest.NewRequest(http.MethodGet, "/tried", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a session cookie, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/tried", nil)
	req.AddCookie(sessionCookie(t, ws.Sessions, &identity.Identity{Uid: "u1", Email: "u@x"}))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with a verified cookie, got %d", rec.Code)
	}
}
