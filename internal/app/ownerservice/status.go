package ownerservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/discordhook"
)

// updateUpStatus recomputes the up state of an owner from the freshness of its sections.
// When admin alerts are enabled a transition is reported to the active default webhooks.
func (s *OwnerService) updateUpStatus(ctx context.Context, ownerID int32) error {
	owner, err := s.st.GetOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	isUp := owner.IsUpCurrent(s.Now())
	if v, err := owner.IsUp.Value(); err == nil && v == isUp {
		return nil
	}
	if err := s.st.UpdateOwnerIsUp(ctx, ownerID, isUp); err != nil {
		return err
	}
	slog.Info("Owner up state changed", "ownerID", ownerID, "isUp", isUp)
	if !s.cfg.AdminAlertsEnabled {
		return nil
	}
	if owner.IsUp.IsEmpty() && isUp {
		// the first successful sync is not a transition worth alerting
		return nil
	}
	return s.sendAdminAlert(ctx, owner, isUp)
}

func (s *OwnerService) sendAdminAlert(ctx context.Context, owner *app.Owner, isUp bool) error {
	var text string
	if isUp {
		text = fmt.Sprintf("%s: Notification service is up again.", owner.Name())
	} else {
		text = fmt.Sprintf(
			"%s: Notification service is down: %s.", owner.Name(), strings.Join(s.staleSections(owner), ", "),
		)
	}
	webhooks, err := s.st.ListWebhooks(ctx)
	if err != nil {
		return err
	}
	for _, w := range webhooks {
		if !w.IsDefault || !w.IsActive {
			continue
		}
		m := discordhook.Message{Content: text, Username: webhookUsername}
		if err := s.webhookClient(w).Send(ctx, m); err != nil {
			slog.Error("Failed to send admin alert", "webhook", w.Name, "error", err)
		}
	}
	return nil
}

// staleSections names the sections which are currently not fresh, with their last error.
func (s *OwnerService) staleSections(owner *app.Owner) []string {
	now := s.Now()
	sections := []app.OwnerSection{app.SectionStructures, app.SectionNotifications, app.SectionForwarding}
	stale := make([]string, 0)
	for _, section := range sections {
		status := owner.SectionStatus(section)
		if status.IsFresh(section, now) {
			continue
		}
		if status.IsOK() {
			stale = append(stale, fmt.Sprintf("%s is stale", section))
		} else {
			stale = append(stale, fmt.Sprintf("%s failed with: %s", section, status.Error))
		}
	}
	return stale
}
