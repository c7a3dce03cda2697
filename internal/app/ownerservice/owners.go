package ownerservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

func (s *OwnerService) GetOwner(ctx context.Context, ownerID int32) (*app.Owner, error) {
	return s.st.GetOwner(ctx, ownerID)
}

func (s *OwnerService) ListOwners(ctx context.Context) ([]*app.Owner, error) {
	return s.st.ListOwners(ctx)
}

func (s *OwnerService) DeleteOwner(ctx context.Context, ownerID int32) error {
	return s.st.DeleteOwner(ctx, ownerID)
}

type AddOwnerParams struct {
	CorporationID          int32
	CharacterID            optional.Optional[int32]
	CharacterName          string
	HasDefaultPingsEnabled bool
	IsAllianceMain         bool
	PingGroups             []string
	WebhookIDs             []int64
}

// AddOwner registers a corporation as owner.
// The corporation and its alliance are resolved from ESI.
func (s *OwnerService) AddOwner(ctx context.Context, arg AddOwnerParams) (*app.Owner, error) {
	if arg.CorporationID == 0 {
		return nil, fmt.Errorf("AddOwner: %+v: %w", arg, app.ErrInvalid)
	}
	if _, err := s.eus.GetOrCreateEntityESI(ctx, arg.CorporationID); err != nil {
		return nil, err
	}
	corporation, _, err := s.esiClient.ESI.CorporationApi.GetCorporationsCorporationId(ctx, arg.CorporationID, nil)
	if err != nil {
		return nil, err
	}
	var allianceID optional.Optional[int32]
	if corporation.AllianceId != 0 {
		if _, err := s.eus.GetOrCreateEntityESI(ctx, corporation.AllianceId); err != nil {
			return nil, err
		}
		allianceID = optional.New(corporation.AllianceId)
	}
	err = s.st.UpdateOrCreateOwner(ctx, storage.UpdateOrCreateOwnerParams{
		ID:                     arg.CorporationID,
		AllianceID:             allianceID,
		CharacterID:            arg.CharacterID,
		CharacterName:          arg.CharacterName,
		HasDefaultPingsEnabled: arg.HasDefaultPingsEnabled,
		IsAllianceMain:         arg.IsAllianceMain,
		PingGroups:             arg.PingGroups,
		WebhookIDs:             arg.WebhookIDs,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Stored owner", "corporationID", arg.CorporationID)
	return s.st.GetOwner(ctx, arg.CorporationID)
}
