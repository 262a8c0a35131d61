package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

// Provider is an OAuth2 authorization-code identity provider
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (map[string]interface{}, error)
	LogoutURL(returnTo string) string
}

// Auth0Config configures the Auth0 provider
type Auth0Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Audience     string
	// BaseURL overrides https://{Domain}
	BaseURL string
	Timeout time.Duration
}

// Auth0 implements Provider against an Auth0 tenant
type Auth0 struct {
	oauth    *oauth2.Config
	client   *resty.Client
	baseURL  string
	clientID string
	audience string
}

// NewAuth0 creates an Auth0 provider
func NewAuth0(cfg Auth0Config) *Auth0 {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://" + cfg.Domain
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Auth0{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/authorize",
				TokenURL: base + "/oauth/token",
			},
		},
		client: resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		baseURL:  base,
		clientID: cfg.ClientID,
		audience: cfg.Audience,
	}
}

// AuthCodeURL returns the authorize redirect for state
func (a *Auth0) AuthCodeURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if a.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", a.audience))
	}
	return a.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a token
func (a *Auth0) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.GetClient())
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// UserInfo fetches the /userinfo document for token
func (a *Auth0) UserInfo(ctx context.Context, token *oauth2.Token) (map[string]interface{}, error) {
	var info map[string]interface{}

	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&info).
		Get("/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode())
	}
	return info, nil
}

// LogoutURL returns the provider logout redirect
func (a *Auth0) LogoutURL(returnTo string) string {
	params := url.Values{}
	params.Set("returnTo", returnTo)
	params.Set("client_id", a.clientID)
	return a.baseURL + "/v2/logout?" + params.Encode()
}

// NewState returns a random URL-safe state value
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
