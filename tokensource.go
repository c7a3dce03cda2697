package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app/ownerservice"
	"github.com/ErikKalkoken/structurewatch/internal/sso"
)

// ssoTokenSource provides ESI access tokens for the configured sync characters.
// Access tokens are cached per character and refreshed through SSO when they expire.
// Rotated refresh tokens are kept in memory only,
// so a character keeps working until the service is restarted.
type ssoTokenSource struct {
	s *sso.SSOService

	mu            sync.Mutex
	refreshTokens map[int32]string
	tokens        map[int32]*sso.Token
}

func newSSOTokenSource(s *sso.SSOService, refreshTokens map[int32]string) *ssoTokenSource {
	return &ssoTokenSource{
		s:             s,
		refreshTokens: refreshTokens,
		tokens:        make(map[int32]*sso.Token),
	}
}

func (ts *ssoTokenSource) Token(ctx context.Context, characterID int32) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	refreshToken, ok := ts.refreshTokens[characterID]
	if !ok {
		return "", fmt.Errorf("character %d: %w", characterID, ownerservice.ErrNoCharacter)
	}
	if t, ok := ts.tokens[characterID]; ok && t.IsValid(time.Now()) {
		return t.AccessToken, nil
	}
	t, err := ts.s.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sso.ErrTokenError) {
			return "", fmt.Errorf("character %d: %w", characterID, ownerservice.ErrTokenInvalid)
		}
		return "", err
	}
	ts.tokens[characterID] = t
	if t.RefreshToken != "" {
		ts.refreshTokens[characterID] = t.RefreshToken
	}
	return t.AccessToken, nil
}
