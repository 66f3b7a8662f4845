package server

import (
	"log"
	"net/http"
	"time"

	"github.com/Szmjuly/CoffeeDropMonitor/pkg/identity"
	"github.com/golang-jwt/jwt/v4"
)

const tokenCookieName = "cdm-session"

// Sessions mints and verifies the signed session cookie. Sign-in sets it,
// every identity-requiring route parses it back before doing anything.
type Sessions struct {
	TokenKey []byte
}

func NewSessions(tokenKey []byte) *Sessions {
	return &Sessions{TokenKey: tokenKey}
}

func (s *Sessions) CreateToken(id *identity.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"uid":   id.Uid,
			"email": id.Email,
			"name":  id.Name,
			"exp":   time.Now().Add(time.Hour * 24).Unix(),
		})
	return token.SignedString(s.TokenKey)
}

func (s *Sessions) SetSession(w http.ResponseWriter, id *identity.Identity) {
	tokenString, err := s.CreateToken(id)
	if err != nil {
		log.Printf("Failed to sign session token: %v", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    tokenString,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   86400,
	})
}

func (s *Sessions) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   tokenCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// FromRequest parses and verifies the session cookie. Returns nil for a
// missing, expired or tampered token.
func (s *Sessions) FromRequest(r *http.Request) *identity.Identity {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return nil
	}
	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		return s.TokenKey, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id := &identity.Identity{}
	if v, ok := claims["uid"].(string); ok {
		id.Uid = v
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		id.Name = v
	}
	if id.Uid == "" {
		return nil
	}
	return id
}
