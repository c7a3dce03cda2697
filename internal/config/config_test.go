package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should load a complete config", func(t *testing.T) {
		// given
		path := writeConfig(t, `
debug_footer: true
default_language: de
report_npc_attacks: false
webhooks:
  - name: alerts
    url: https://discord.com/api/webhooks/1/abc
    is_default: true
    has_default_pings_enabled: true
    ping_groups: ["milita"]
  - name: fuel
    url: https://discord.com/api/webhooks/2/def
    notification_types: ["StructureFuelAlert", "StructureRefueledExtra"]
owners:
  - corporation_id: 2001
    character_id: 1001
    is_alliance_main: true
    refresh_token_env: STRUCTUREWATCH_TOKEN_MAIN
    webhooks: ["alerts", "fuel"]
fuel_alerts:
  - start: 48
    end: 0
    repeat: 12
    ping: everyone
    color: danger
jump_fuel_alerts:
  - threshold: 100
`)
		// when
		c, err := config.Load(path)
		// then
		if assert.NoError(t, err) {
			assert.True(t, c.DebugFooter)
			assert.True(t, c.AdminAlertsEnabled)
			assert.False(t, c.ReportNPCAttacks)
			assert.Equal(t, ":8080", c.StatusAddress)
			assert.Len(t, c.Webhooks, 2)
			assert.Len(t, c.Owners, 1)
			ac := c.AppConfig()
			assert.Equal(t, language.German, ac.DefaultLanguage)
			configs, err := c.FuelAlertConfigs()
			if assert.NoError(t, err) && assert.Len(t, configs, 1) {
				assert.Equal(t, 48, configs[0].Start)
				assert.Equal(t, app.PingEveryone, configs[0].PingOverride.MustValue())
				assert.Equal(t, app.ColorDanger, configs[0].ColorOverride.MustValue())
			}
		}
	})
	t.Run("should reject unknown notification type", func(t *testing.T) {
		// given
		path := writeConfig(t, `
webhooks:
  - name: alerts
    url: https://discord.com/api/webhooks/1/abc
    notification_types: ["NotAType"]
`)
		// when
		_, err := config.Load(path)
		// then
		assert.Error(t, err)
	})
	t.Run("should reject owner with unknown webhook", func(t *testing.T) {
		// given
		path := writeConfig(t, `
owners:
  - corporation_id: 2001
    webhooks: ["missing"]
`)
		// when
		_, err := config.Load(path)
		// then
		assert.Error(t, err)
	})
	t.Run("should reject overlapping fuel alerts", func(t *testing.T) {
		// given
		path := writeConfig(t, `
fuel_alerts:
  - start: 48
    end: 24
    repeat: 12
  - start: 30
    end: 0
    repeat: 6
`)
		// when
		_, err := config.Load(path)
		// then
		assert.Error(t, err)
	})
	t.Run("should read refresh token from the environment", func(t *testing.T) {
		// given
		t.Setenv("STRUCTUREWATCH_TOKEN_TEST", "refresh-token")
		o := config.Owner{CorporationID: 2001, RefreshTokenEnv: "STRUCTUREWATCH_TOKEN_TEST"}
		// when
		token, err := o.RefreshToken()
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "refresh-token", token)
		}
	})
}
