package app

import (
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/set"
)

// Webhook is a Discord webhook notifications can be forwarded to.
type Webhook struct {
	ID                     int64
	HasDefaultPingsEnabled bool
	IsActive               bool
	IsDefault              bool
	Language               language.Tag
	Name                   string
	NotificationTypes      set.Set[NotificationType]
	PingGroups             []string
	URL                    string
}

// WantsNotificationType reports whether a webhook is subscribed to a type.
func (w *Webhook) WantsNotificationType(nt NotificationType) bool {
	return w.NotificationTypes.Contains(nt)
}
