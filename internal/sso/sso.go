// Package sso refreshes Eve Online SSO tokens for a headless service.
//
// Characters are authorized out of band and their refresh tokens are handed
// to this service through configuration. The package only implements the
// refresh token grant of OAuth 2.0.
package sso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ssoHost         = "login.eveonline.com"
	tokenURLDefault = "https://login.eveonline.com/v2/oauth/token"
)

var (
	ErrTokenError          = errors.New("token error")
	ErrMissingRefreshToken = errors.New("missing refresh token")
)

// Token is an OAuth token for a character in Eve Online.
type Token struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// IsValid reports whether the access token can still be used at a given time.
func (t Token) IsValid(at time.Time) bool {
	return t.AccessToken != "" && at.Before(t.ExpiresAt)
}

// SSOService refreshes tokens with the Eve Online SSO API.
type SSOService struct {
	clientID   string
	httpClient *http.Client
	tokenURL   string
}

// New returns a new SSO service.
// When client is nil the default client is used.
func New(clientID string, client *http.Client) *SSOService {
	if client == nil {
		client = http.DefaultClient
	}
	s := &SSOService{
		clientID:   clientID,
		httpClient: client,
		tokenURL:   tokenURLDefault,
	}
	return s
}

// RefreshToken obtains a new access token from a refresh token.
func (s *SSOService) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	rawToken, err := s.fetchRefreshedToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	token := &Token{
		AccessToken:  rawToken.AccessToken,
		ExpiresAt:    rawToken.expiresAt(),
		RefreshToken: rawToken.RefreshToken,
	}
	return token, nil
}

// token payload as returned from the SSO API
type tokenPayload struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int32  `json:"expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (t tokenPayload) expiresAt() time.Time {
	return time.Now().UTC().Add(time.Duration(t.ExpiresIn) * time.Second)
}

func (s *SSOService) fetchRefreshedToken(ctx context.Context, refreshToken string) (*tokenPayload, error) {
	form := url.Values{
		"client_id":     {s.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Host", ssoHost)
	slog.Debug("Requesting token from SSO API", "grant_type", form.Get("grant_type"), "url", s.tokenURL)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	token := tokenPayload{}
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}
	if token.Error != "" {
		return nil, fmt.Errorf(
			"SSO refresh token: token payload has error: %s, %s: %w",
			token.Error, token.ErrorDescription, ErrTokenError,
		)
	}
	return &token, nil
}
