package ownerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/xesi"
)

// notificationStaleAfter is the age beyond which notifications are no longer
// forwarded or processed for timers.
const notificationStaleAfter = 24 * time.Hour

// FetchNotificationsESI fetches the notifications of an owner from ESI, stores new ones
// and processes them for timers.
func (s *OwnerService) FetchNotificationsESI(ctx context.Context, ownerID int32) error {
	_, err, _ := s.sfg.Do(fmt.Sprintf("FetchNotificationsESI-%d", ownerID), func() (any, error) {
		owner, err := s.st.GetOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		err = s.fetchNotifications(ctx, owner)
		s.recordSectionResult(ctx, ownerID, app.SectionNotifications, err)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("fetch notifications for owner %d: %w", ownerID, err)
	}
	return nil
}

func (s *OwnerService) fetchNotifications(ctx context.Context, owner *app.Owner) error {
	accessToken, err := s.token(ctx, owner)
	if err != nil {
		return err
	}
	ctx = xesi.NewContextWithToken(ctx, accessToken)
	notifications, _, err := s.esiClient.ESI.CharacterApi.GetCharactersCharacterIdNotifications(
		ctx, owner.CharacterID.MustValue(), nil,
	)
	if err != nil {
		return err
	}
	var newCount int
	for _, n := range notifications {
		if !app.NotificationType(n.Type_).IsSupported() {
			continue
		}
		sender, err := s.eus.GetOrCreateEntityESI(ctx, n.SenderId)
		if err != nil {
			return err
		}
		_, err = s.st.GetNotification(ctx, owner.ID, n.NotificationId)
		isNew := errors.Is(err, app.ErrNotFound)
		if err != nil && !isNew {
			return err
		}
		err = s.st.UpdateOrCreateNotification(ctx, storage.UpdateOrCreateNotificationParams{
			IsRead:         n.IsRead,
			NotificationID: n.NotificationId,
			OwnerID:        owner.ID,
			SenderID:       sender.ID,
			Text:           n.Text,
			Timestamp:      n.Timestamp,
			Type:           n.Type_,
		})
		if err != nil {
			return err
		}
		if isNew {
			newCount++
		}
	}
	if newCount == 0 {
		slog.Info("No new notifications received from ESI", "ownerID", owner.ID)
		return nil
	}
	slog.Info("Received new notifications from ESI", "ownerID", owner.ID, "count", newCount)
	return s.processTimers(ctx, owner)
}

// processTimers runs all recent unprocessed notifications through the timer service.
func (s *OwnerService) processTimers(ctx context.Context, owner *app.Owner) error {
	if s.tms == nil || !s.tms.HasSinks() {
		return nil
	}
	cutoff := s.Now().Add(-notificationStaleAfter)
	notifications, err := s.st.ListNotificationsForTimerProcessing(ctx, owner.ID, cutoff)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		nt, ok := n.NotificationType()
		if !ok || !nt.IsTimerRelevant() {
			continue
		}
		processed, err := s.tms.ProcessNotification(ctx, owner, n)
		if err != nil {
			slog.Error("Failed to process notification for timers", "notificationID", n.NotificationID, "error", err)
			continue
		}
		if processed {
			if err := s.st.UpdateNotificationIsTimerAdded(ctx, n.ID, true); err != nil {
				return err
			}
		}
	}
	return nil
}
