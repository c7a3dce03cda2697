package ownerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/antihax/goesi/esi"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

// TokenSource provides valid ESI access tokens for characters.
type TokenSource interface {
	// Token returns a valid access token for a character.
	// Implementations should return one of the sentinel errors of this package
	// when the failure can be classified.
	Token(ctx context.Context, characterID int32) (string, error)
}

// Sentinel errors for token acquisition.
var (
	ErrNoCharacter             = errors.New("no character configured")
	ErrTokenExpired            = errors.New("token expired")
	ErrTokenInvalid            = errors.New("token invalid")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// token returns a valid access token for the sync character of an owner.
func (s *OwnerService) token(ctx context.Context, owner *app.Owner) (string, error) {
	characterID, err := owner.CharacterID.Value()
	if err != nil {
		return "", fmt.Errorf("owner %d: %w", owner.ID, ErrNoCharacter)
	}
	accessToken, err := s.ts.Token(ctx, characterID)
	if err != nil {
		return "", fmt.Errorf("token for owner %d: %w", owner.ID, err)
	}
	return accessToken, nil
}

// classifySyncError derives the sync error category from an error.
func classifySyncError(err error) app.SyncError {
	switch {
	case err == nil:
		return app.SyncErrorNone
	case errors.Is(err, ErrNoCharacter):
		return app.SyncErrorNoCharacter
	case errors.Is(err, ErrTokenExpired):
		return app.SyncErrorTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return app.SyncErrorTokenInvalid
	case errors.Is(err, ErrInsufficientPermissions):
		return app.SyncErrorInsufficientPermissions
	}
	var swaggerErr esi.GenericSwaggerError
	if errors.As(err, &swaggerErr) {
		return app.SyncErrorESIUnavailable
	}
	return app.SyncErrorUnknown
}

// recordSectionResult stores the outcome of a section sync and refreshes the up state.
func (s *OwnerService) recordSectionResult(ctx context.Context, ownerID int32, section app.OwnerSection, err error) {
	syncError := classifySyncError(err)
	if err := s.st.UpdateOwnerSyncStatus(ctx, ownerID, section, syncError, s.Now()); err != nil {
		slog.Error("Failed to record sync status", "ownerID", ownerID, "section", section, "error", err)
		return
	}
	if err := s.updateUpStatus(ctx, ownerID); err != nil {
		slog.Error("Failed to update up status", "ownerID", ownerID, "error", err)
	}
}
