package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const identityToolkitUrl = "https://identitytoolkit.googleapis.com/v1"
const googleUserInfoUrl = "https://www.googleapis.com/oauth2/v2/userinfo"

// FirebaseProvider signs users in against the hosted auth service. Password
// flows go through the identitytoolkit REST endpoints with the web API key,
// interactive sign-in goes through the Google oauth consent flow, and the
// admin SDK verifies issued tokens.
type FirebaseProvider struct {
	notifier
	apiKey      string
	authClient  *fbauth.Client
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

type FirebaseProviderConfig struct {
	ProjectId       string
	ApiKey          string
	CredentialsFile string
	ClientId        string
	ClientSecret    string
	CallbackUrl     string
}

func NewFirebaseProvider(ctx context.Context, cfg FirebaseProviderConfig) (*FirebaseProvider, error) {
	conf := &firebase.Config{}
	if cfg.ProjectId != "" {
		conf.ProjectID = cfg.ProjectId
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}
	p := &FirebaseProvider{
		apiKey:     cfg.ApiKey,
		authClient: authClient,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	if cfg.ClientId != "" && cfg.ClientSecret != "" {
		p.oauthConfig = &oauth2.Config{
			ClientID:     cfg.ClientId,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackUrl,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return p, nil
}

// Start resolves the initial identity. There is no persisted server-side
// session, so startup always resolves to signed out.
func (p *FirebaseProvider) Start() {
	p.set(nil)
}

type passwordResponse struct {
	IdToken string `json:"idToken"`
	LocalId string `json:"localId"`
	Email   string `json:"email"`
	Name    string `json:"displayName"`
}

func (p *FirebaseProvider) passwordCall(ctx context.Context, endpoint, email, secret string) (*Identity, error) {
	body, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          secret,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/accounts:%s?key=%s", identityToolkitUrl, endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: auth rejected with status %d", ErrInvalidCredentials, res.StatusCode)
	}
	var parsed passwordResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	// Round trip through the admin SDK so we only ever trust verified uids.
	token, err := p.authClient.VerifyIDToken(ctx, parsed.IdToken)
	if err != nil {
		return nil, err
	}
	id := &Identity{Uid: token.UID, Email: parsed.Email, Name: parsed.Name}
	p.set(id)
	return id, nil
}

func (p *FirebaseProvider) SignInWithCredentials(ctx context.Context, email, secret string) (*Identity, error) {
	return p.passwordCall(ctx, "signInWithPassword", email, secret)
}

func (p *FirebaseProvider) RegisterWithCredentials(ctx context.Context, email, secret string) (*Identity, error) {
	return p.passwordCall(ctx, "signUp", email, secret)
}

func (p *FirebaseProvider) SignOut(context.Context) error {
	p.set(nil)
	return nil
}

// InteractiveUrl starts the consent flow for interactive sign-in. Empty when
// no oauth client is configured.
func (p *FirebaseProvider) InteractiveUrl(state string) string {
	if p.oauthConfig == nil {
		return ""
	}
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type googleUserInfo struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignInWithGoogleCode finishes the interactive flow from the oauth callback.
func (p *FirebaseProvider) SignInWithGoogleCode(ctx context.Context, code string) (*Identity, error) {
	if p.oauthConfig == nil {
		return nil, errors.New("interactive sign-in not configured")
	}
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	res, err := p.oauthConfig.Client(ctx, token).Get(googleUserInfoUrl)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var info googleUserInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, err
	}
	id := &Identity{Uid: "google:" + info.Id, Email: info.Email, Name: info.Name}
	p.set(id)
	return id, nil
}
