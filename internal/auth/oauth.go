package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"trivia-quiz-service/internal/domain"
)

// Google endpoints used when the config leaves them empty.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// OAuthConfig describes an authorization-code provider.
type OAuthConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// OAuthProvider signs people in through an OAuth2 authorization-code flow and
// reads their profile from an OpenID-style userinfo endpoint.
type OAuthProvider struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewOAuthProvider builds a provider; httpClient may be nil.
func NewOAuthProvider(cfg OAuthConfig, httpClient *http.Client) *OAuthProvider {
	if cfg.Name == "" {
		cfg.Name = "google"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = GoogleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthProvider{
		name: cfg.Name,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
	}
}

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (domain.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: exchange code: %w", domain.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: fetch userinfo: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("%w: userinfo status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: decode userinfo: %w", domain.ErrUpstream, err)
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return domain.Profile{}, fmt.Errorf("%w: userinfo without subject", domain.ErrUpstream)
	}

	return domain.Profile{
		Provider: p.name,
		Subject:  subject,
		Name:     info.Name,
		Email:    info.Email,
		Image:    info.Picture,
	}, nil
}
