package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

func TestNotificationTypeDisplay(t *testing.T) {
	cases := []struct {
		nt   app.NotificationType
		want string
	}{
		{app.StructureUnderAttack, "Structure Under Attack"},
		{app.TowerAlertMsg, "Tower Alert Msg"},
		{app.IHubDestroyedByBillFailure, "IHub Destroyed By Bill Failure"},
	}
	for _, tc := range cases {
		t.Run(string(tc.nt), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.nt.Display())
		})
	}
}

func TestNotificationTypeSets(t *testing.T) {
	t.Run("esi types exclude generated types", func(t *testing.T) {
		esi := app.NotificationTypesESI()
		assert.False(t, esi.Contains(app.StructureRefueledExtra))
		assert.False(t, esi.Contains(app.TowerReinforcedExtra))
		assert.True(t, esi.Contains(app.StructureUnderAttack))
	})
	t.Run("webhook defaults are supported", func(t *testing.T) {
		defaults := app.NotificationTypesWebhookDefaults()
		assert.Equal(t, 16, defaults.Size())
		assert.True(t, set.Difference(defaults, app.NotificationTypesSupported()).Size() == 0)
	})
	t.Run("enabled types follow refueled feature flag", func(t *testing.T) {
		cfg := app.DefaultConfig()
		cfg.RefueledNotificationsEnabled = false
		enabled := app.NotificationTypesEnabled(cfg)
		assert.False(t, enabled.Contains(app.StructureRefueledExtra))
		assert.False(t, enabled.Contains(app.TowerRefueledExtra))
		cfg.RefueledNotificationsEnabled = true
		enabled = app.NotificationTypesEnabled(cfg)
		assert.True(t, enabled.Contains(app.StructureRefueledExtra))
	})
	t.Run("alliance level excludes anchoring", func(t *testing.T) {
		assert.False(t, app.AllAnchoringMsg.IsAllianceLevel())
		assert.True(t, app.WarDeclared.IsAllianceLevel())
		assert.True(t, app.SovStructureReinforced.IsAllianceLevel())
	})
	t.Run("timer relevance", func(t *testing.T) {
		assert.True(t, app.StructureLostShields.IsTimerRelevant())
		assert.True(t, app.MoonminingExtractionCancelled.IsTimerRelevant())
		assert.False(t, app.StructureUnderAttack.IsTimerRelevant())
	})
	t.Run("structure relation", func(t *testing.T) {
		assert.True(t, app.OrbitalAttacked.IsStructureRelated())
		assert.True(t, app.StructuresReinforcementChanged.IsStructureRelated())
		assert.False(t, app.WarDeclared.IsStructureRelated())
	})
}

func TestEmbedColorPing(t *testing.T) {
	cases := []struct {
		color app.EmbedColor
		want  app.PingType
	}{
		{app.ColorDanger, app.PingEveryone},
		{app.ColorWarning, app.PingHere},
		{app.ColorInfo, app.PingNone},
		{app.ColorSuccess, app.PingNone},
		{app.EmbedColor(0), app.PingNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.color.Ping(), tc.color)
	}
}

func TestPingTypeString(t *testing.T) {
	assert.Equal(t, "", app.PingNone.String())
	assert.Equal(t, "@here", app.PingHere.String())
	assert.Equal(t, "@everyone", app.PingEveryone.String())
}

func TestNotificationType(t *testing.T) {
	t.Run("supported type", func(t *testing.T) {
		n := &app.Notification{Type: "StructureUnderAttack"}
		nt, ok := n.NotificationType()
		assert.True(t, ok)
		assert.Equal(t, app.StructureUnderAttack, nt)
	})
	t.Run("unsupported type is kept verbatim", func(t *testing.T) {
		n := &app.Notification{Type: "SomeNewNotification"}
		_, ok := n.NotificationType()
		assert.False(t, ok)
	})
}
