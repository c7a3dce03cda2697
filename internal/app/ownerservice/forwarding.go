package ownerservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification"
	"github.com/ErikKalkoken/structurewatch/internal/discordhook"
)

const webhookUsername = "Structurewatch"

// SendNewNotifications forwards all unsent recent notifications of an owner to Discord.
//
// A notification is marked as sent only when the delivery to every relevant
// webhook succeeded. Partially delivered notifications are retried on the next run.
func (s *OwnerService) SendNewNotifications(ctx context.Context, ownerID int32) error {
	_, err, _ := s.sfg.Do(fmt.Sprintf("SendNewNotifications-%d", ownerID), func() (any, error) {
		owner, err := s.st.GetOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		err = s.sendNewNotifications(ctx, owner)
		s.recordSectionResult(ctx, ownerID, app.SectionForwarding, err)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("send notifications for owner %d: %w", ownerID, err)
	}
	return nil
}

func (s *OwnerService) sendNewNotifications(ctx context.Context, owner *app.Owner) error {
	cutoff := s.Now().Add(-notificationStaleAfter)
	notifications, err := s.st.ListUnsentNotificationsForOwner(ctx, owner.ID, cutoff)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		if err := s.forwardNotification(ctx, owner, n); err != nil {
			return err
		}
	}
	return nil
}

// SendGeneratedNotification renders a generated notification and delivers it immediately.
// It implements the dispatcher of the fuel service.
func (s *OwnerService) SendGeneratedNotification(ctx context.Context, n *app.Notification) error {
	owner, err := s.st.GetOwner(ctx, n.OwnerID)
	if err != nil {
		return err
	}
	return s.forwardNotification(ctx, owner, n)
}

// forwardNotification delivers one notification to all relevant webhooks.
//
// Notifications that can not be rendered are logged and skipped, so a single
// malformed payload can not block the queue. Failed deliveries leave the
// notification unsent so it is retried.
func (s *OwnerService) forwardNotification(ctx context.Context, owner *app.Owner, n *app.Notification) error {
	nt, ok := n.NotificationType()
	if !ok {
		return nil
	}
	if !shouldForward(owner, nt) {
		return nil
	}
	if !s.cfg.ReportNPCAttacks {
		isNPC, err := s.isNPCAttack(ctx, nt, n.Text)
		if err != nil {
			return err
		}
		if isNPC {
			slog.Debug("Suppressed NPC attack notification", "notificationID", n.NotificationID)
			return nil
		}
	}
	webhooks, err := s.relevantWebhooks(ctx, owner, n)
	if err != nil {
		return err
	}
	if len(webhooks) == 0 {
		return nil
	}
	rendered, err := s.ens.Render(ctx, nt, n.Text, n.Timestamp)
	if err != nil {
		slog.Error("Failed to render notification", "notificationID", n.NotificationID, "type", n.Type, "error", err)
		return nil
	}
	if c, err := n.ColorOverride.Value(); err == nil {
		rendered.Color = c
	}
	delivered := true
	for _, w := range webhooks {
		m := s.makeMessage(owner, n, w, rendered)
		if err := s.webhookClient(w).Send(ctx, m); err != nil {
			slog.Error("Failed to deliver notification",
				"notificationID", n.NotificationID, "webhook", w.Name, "error", err,
			)
			delivered = false
		}
	}
	if delivered && !n.IsTemporary() {
		return s.st.UpdateNotificationIsSent(ctx, n.ID, true)
	}
	return nil
}

func (s *OwnerService) makeMessage(owner *app.Owner, n *app.Notification, w *app.Webhook, r evenotification.Rendered) discordhook.Message {
	embed := discordhook.Embed{
		Color:       int32(r.Color),
		Description: r.Body,
		Footer:      &discordhook.EmbedFooter{Text: s.makeFooterText(n)},
		Timestamp:   n.Timestamp.Format(time.RFC3339),
		Title:       r.Title,
	}
	if r.ThumbnailURL != "" {
		embed.Thumbnail = &discordhook.EmbedThumbnail{URL: r.ThumbnailURL}
	}
	if owner.IsAllianceMain && owner.Alliance != nil {
		embed.Author = &discordhook.EmbedAuthor{
			Name:    owner.Alliance.Name,
			IconURL: makeAllianceLogoURL(owner.Alliance.ID),
		}
	} else if owner.Corporation != nil {
		embed.Author = &discordhook.EmbedAuthor{
			Name:    owner.Corporation.Name,
			IconURL: makeCorporationLogoURL(owner.Corporation.ID),
		}
	}
	return discordhook.Message{
		Content:  s.makeContent(owner, n, w, r),
		Embeds:   []discordhook.Embed{embed},
		Username: webhookUsername,
	}
}

func (s *OwnerService) makeFooterText(n *app.Notification) string {
	nt, _ := n.NotificationType()
	text := "Received from EVE Online"
	if nt.IsGenerated() {
		text = "Generated by " + webhookUsername
	}
	if s.cfg.DebugFooter && !n.IsTemporary() {
		text += fmt.Sprintf(" #%d", n.NotificationID)
	}
	return text
}

// makeContent builds the message text including the ping directives.
// @everyone and @here pings require default pings on both the owner and the webhook.
func (s *OwnerService) makeContent(owner *app.Owner, n *app.Notification, w *app.Webhook, r evenotification.Rendered) string {
	parts := make([]string, 0)
	if owner.HasDefaultPingsEnabled && w.HasDefaultPingsEnabled {
		ping := r.Ping()
		if p, err := n.PingOverride.Value(); err == nil {
			ping = p
		}
		if ping != app.PingNone {
			parts = append(parts, ping.String())
		}
	}
	for _, g := range owner.PingGroups {
		parts = append(parts, "@"+g)
	}
	for _, g := range w.PingGroups {
		parts = append(parts, "@"+g)
	}
	return strings.Join(parts, " ")
}

const logoSize = 64

func makeCorporationLogoURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/corporations/%d/logo?size=%d", id, logoSize)
}

func makeAllianceLogoURL(id int32) string {
	return fmt.Sprintf("https://images.evetech.net/alliances/%d/logo?size=%d", id, logoSize)
}
