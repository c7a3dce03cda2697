package sso_test

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/sso"
)

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	t.Run("should return a refreshed token", func(t *testing.T) {
		// given
		httpmock.Reset()
		s := sso.New("client-id", nil)
		httpmock.RegisterResponder("POST",
			"https://login.eveonline.com/v2/oauth/token",
			httpmock.NewJsonResponderOrPanic(200, map[string]any{
				"access_token":  "access-token",
				"expires_in":    1199,
				"token_type":    "Bearer",
				"refresh_token": "refresh-token-2",
			}),
		)
		// when
		token, err := s.RefreshToken(ctx, "refresh-token")
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "access-token", token.AccessToken)
			assert.Equal(t, "refresh-token-2", token.RefreshToken)
			assert.True(t, token.IsValid(time.Now().UTC()))
		}
	})
	t.Run("should return error when the token payload reports one", func(t *testing.T) {
		// given
		httpmock.Reset()
		s := sso.New("client-id", nil)
		httpmock.RegisterResponder("POST",
			"https://login.eveonline.com/v2/oauth/token",
			httpmock.NewJsonResponderOrPanic(400, map[string]any{
				"error":             "invalid_grant",
				"error_description": "Invalid refresh token.",
			}),
		)
		// when
		_, err := s.RefreshToken(ctx, "refresh-token")
		// then
		assert.ErrorIs(t, err, sso.ErrTokenError)
	})
	t.Run("should return error when no refresh token is given", func(t *testing.T) {
		// given
		httpmock.Reset()
		s := sso.New("client-id", nil)
		// when
		_, err := s.RefreshToken(ctx, "")
		// then
		assert.ErrorIs(t, err, sso.ErrMissingRefreshToken)
	})
}
