package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/common"
	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/google/uuid"
)

// AuthHandler exposes the identity provider over HTTP. Password flows go to
// the provider directly, interactive sign-in round-trips through the Google
// consent screen. Sign-in sets the signed session cookie.
type AuthHandler struct {
	Provider identity.Provider
	// Interactive is set when the provider supports the oauth consent flow.
	Interactive *identity.FirebaseProvider
	Sessions    *Sessions

	mu     sync.Mutex
	states map[string]time.Time
}

func NewAuthHandler(provider identity.Provider, interactive *identity.FirebaseProvider, sessions *Sessions) *AuthHandler {
	return &AuthHandler{
		Provider:    provider,
		Interactive: interactive,
		Sessions:    sessions,
		states:      map[string]time.Time{},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthHandler) credentials(w http.ResponseWriter, r *http.Request, register bool) {
	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JsonError(w, http.StatusBadRequest, "invalid credentials payload")
		return
	}
	var id *identity.Identity
	var err error
	if register {
		id, err = a.Provider.RegisterWithCredentials(r.Context(), body.Email, body.Password)
	} else {
		id, err = a.Provider.SignInWithCredentials(r.Context(), body.Email, body.Password)
	}
	if err != nil {
		log.Printf("Auth failed for %s: %v", body.Email, err)
		common.JsonError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	a.Sessions.SetSession(w, id)
	log.Printf("Signed in %s", fmtIdentity(id))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(id); err != nil {
		log.Printf("Error writing identity response: %v", err)
	}
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	a.credentials(w, r, false)
}

func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	a.credentials(w, r, true)
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Provider.SignOut(r.Context()); err != nil {
		common.JsonError(w, http.StatusInternalServerError, "sign-out failed")
		return
	}
	a.Sessions.ClearSession(w)
	w.WriteHeader(http.StatusOK)
}

// User reports the identity carried by the verified session cookie.
func (a *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id := a.Sessions.FromRequest(r)
	if id == nil {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"signedIn":false}`))
		return
	}
	if err := json.NewEncoder(w).Encode(id); err != nil {
		log.Printf("Error writing user response: %v", err)
	}
}

// GoogleLogin redirects to the consent screen with a one-time state.
func (a *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if a.Interactive == nil {
		common.JsonError(w, http.StatusNotImplemented, "interactive sign-in not configured")
		return
	}
	state := uuid.New().String()
	a.mu.Lock()
	a.states[state] = time.Now().Add(10 * time.Minute)
	a.mu.Unlock()
	http.Redirect(w, r, a.Interactive.InteractiveUrl(state), http.StatusTemporaryRedirect)
}

func (a *AuthHandler) consumeState(state string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	expires, ok := a.states[state]
	delete(a.states, state)
	return ok && expires.After(time.Now())
}

func (a *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if a.Interactive == nil {
		common.JsonError(w, http.StatusNotImplemented, "interactive sign-in not configured")
		return
	}
	if !a.consumeState(r.URL.Query().Get("state")) {
		common.JsonError(w, http.StatusUnauthorized, "invalid oauth state")
		return
	}
	id, err := a.Interactive.SignInWithGoogleCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("Google sign-in failed: %v", err)
		common.JsonError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	a.Sessions.SetSession(w, id)
	log.Printf("Signed in %s", fmtIdentity(id))
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Handler wires the auth routes.
func (a *AuthHandler) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", a.Login)
	mux.HandleFunc("POST /register", a.Register)
	mux.HandleFunc("POST /logout", a.Logout)
	mux.HandleFunc("GET /user", a.User)
	mux.HandleFunc("GET /google", a.GoogleLogin)
	mux.HandleFunc("GET /callback", a.GoogleCallback)
	return mux
}
