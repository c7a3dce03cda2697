// Package config loads the service configuration from a YAML file.
//
// Secrets are not kept in the file. Owners name an environment variable
// which holds their SSO refresh token, so the file can be checked in
// while tokens live in the environment or an .env file.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// Webhook is the configuration of one Discord webhook.
type Webhook struct {
	HasDefaultPingsEnabled bool     `yaml:"has_default_pings_enabled"`
	IsDefault              bool     `yaml:"is_default"`
	Language               string   `yaml:"language"`
	Name                   string   `yaml:"name"`
	NotificationTypes      []string `yaml:"notification_types"`
	PingGroups             []string `yaml:"ping_groups"`
	URL                    string   `yaml:"url"`
}

// Owner is the configuration of one structure owner corporation.
type Owner struct {
	CharacterID            int32    `yaml:"character_id"`
	CorporationID          int32    `yaml:"corporation_id"`
	HasDefaultPingsEnabled bool     `yaml:"has_default_pings_enabled"`
	IsAllianceMain         bool     `yaml:"is_alliance_main"`
	PingGroups             []string `yaml:"ping_groups"`
	RefreshTokenEnv        string   `yaml:"refresh_token_env"`
	Webhooks               []string `yaml:"webhooks"`
}

// FuelAlert is the configuration of one fuel alert checkpoint window.
type FuelAlert struct {
	Color  string `yaml:"color"`
	End    int    `yaml:"end"`
	Ping   string `yaml:"ping"`
	Repeat int    `yaml:"repeat"`
	Start  int    `yaml:"start"`
}

// JumpFuelAlert is the configuration of one liquid ozone threshold alert.
type JumpFuelAlert struct {
	Color     string `yaml:"color"`
	Ping      string `yaml:"ping"`
	Threshold int    `yaml:"threshold"`
}

// Config is the complete service configuration.
type Config struct {
	AdminAlertsEnabled           bool   `yaml:"admin_alerts_enabled"`
	DebugFooter                  bool   `yaml:"debug_footer"`
	DefaultLanguage              string `yaml:"default_language"`
	MoonExtractionTimersEnabled  bool   `yaml:"moon_extraction_timers_enabled"`
	RefueledNotificationsEnabled bool   `yaml:"refueled_notifications_enabled"`
	ReportNPCAttacks             bool   `yaml:"report_npc_attacks"`
	StatusAddress                string `yaml:"status_address"`
	TimersCorpRestricted         bool   `yaml:"timers_corp_restricted"`

	FuelAlerts     []FuelAlert     `yaml:"fuel_alerts"`
	JumpFuelAlerts []JumpFuelAlert `yaml:"jump_fuel_alerts"`
	Owners         []Owner         `yaml:"owners"`
	Webhooks       []Webhook       `yaml:"webhooks"`
}

func defaults() Config {
	return Config{
		AdminAlertsEnabled: true,
		DefaultLanguage:    "en",
		ReportNPCAttacks:   true,
		StatusAddress:      ":8080",
	}
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	c := defaults()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) validate() error {
	if _, err := language.Parse(c.DefaultLanguage); err != nil {
		return fmt.Errorf("invalid default language %q: %w", c.DefaultLanguage, err)
	}
	webhooks := make(map[string]bool)
	for _, w := range c.Webhooks {
		if w.Name == "" || w.URL == "" {
			return fmt.Errorf("webhook needs both name and url: %+v", w)
		}
		if webhooks[w.Name] {
			return fmt.Errorf("duplicate webhook name: %s", w.Name)
		}
		webhooks[w.Name] = true
		for _, nt := range w.NotificationTypes {
			if !app.NotificationType(nt).IsSupported() {
				return fmt.Errorf("webhook %s: unknown notification type: %s", w.Name, nt)
			}
		}
		if w.Language != "" {
			if _, err := language.Parse(w.Language); err != nil {
				return fmt.Errorf("webhook %s: invalid language %q: %w", w.Name, w.Language, err)
			}
		}
	}
	for _, o := range c.Owners {
		if o.CorporationID == 0 {
			return fmt.Errorf("owner needs a corporation_id: %+v", o)
		}
		for _, name := range o.Webhooks {
			if !webhooks[name] {
				return fmt.Errorf("owner %d: unknown webhook: %s", o.CorporationID, name)
			}
		}
	}
	if _, err := c.FuelAlertConfigs(); err != nil {
		return err
	}
	if _, err := c.JumpFuelAlertConfigs(); err != nil {
		return err
	}
	return nil
}

// AppConfig returns the feature settings threaded into the services.
func (c Config) AppConfig() app.Config {
	return app.Config{
		AdminAlertsEnabled:           c.AdminAlertsEnabled,
		DebugFooter:                  c.DebugFooter,
		DefaultLanguage:              language.MustParse(c.DefaultLanguage),
		MoonExtractionTimersEnabled:  c.MoonExtractionTimersEnabled,
		RefueledNotificationsEnabled: c.RefueledNotificationsEnabled,
		ReportNPCAttacks:             c.ReportNPCAttacks,
		TimersCorpRestricted:         c.TimersCorpRestricted,
	}
}

// FuelAlertConfigs converts and validates the configured fuel alert windows.
func (c Config) FuelAlertConfigs() ([]app.FuelAlertConfig, error) {
	configs := make([]app.FuelAlertConfig, 0, len(c.FuelAlerts))
	for i, a := range c.FuelAlerts {
		config := app.FuelAlertConfig{
			ID:     int64(i + 1),
			End:    a.End,
			Repeat: a.Repeat,
			Start:  a.Start,
		}
		ping, err := parsePing(a.Ping)
		if err != nil {
			return nil, fmt.Errorf("fuel alert %d: %w", i+1, err)
		}
		config.PingOverride = ping
		color, err := parseColor(a.Color)
		if err != nil {
			return nil, fmt.Errorf("fuel alert %d: %w", i+1, err)
		}
		config.ColorOverride = color
		configs = append(configs, config)
	}
	if err := app.ValidateFuelAlertConfigs(configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// JumpFuelAlertConfigs converts and validates the configured jump fuel thresholds.
func (c Config) JumpFuelAlertConfigs() ([]app.JumpFuelAlertConfig, error) {
	configs := make([]app.JumpFuelAlertConfig, 0, len(c.JumpFuelAlerts))
	for i, a := range c.JumpFuelAlerts {
		if a.Threshold <= 0 {
			return nil, fmt.Errorf("jump fuel alert %d: threshold must be positive", i+1)
		}
		config := app.JumpFuelAlertConfig{
			ID:        int64(i + 1),
			Threshold: a.Threshold,
		}
		ping, err := parsePing(a.Ping)
		if err != nil {
			return nil, fmt.Errorf("jump fuel alert %d: %w", i+1, err)
		}
		config.PingOverride = ping
		color, err := parseColor(a.Color)
		if err != nil {
			return nil, fmt.Errorf("jump fuel alert %d: %w", i+1, err)
		}
		config.ColorOverride = color
		configs = append(configs, config)
	}
	return configs, nil
}

// RefreshToken returns the refresh token of an owner from the environment.
func (o Owner) RefreshToken() (string, error) {
	if o.RefreshTokenEnv == "" {
		return "", fmt.Errorf("owner %d: no refresh_token_env configured", o.CorporationID)
	}
	token := os.Getenv(o.RefreshTokenEnv)
	if token == "" {
		return "", fmt.Errorf("owner %d: environment variable %s is not set", o.CorporationID, o.RefreshTokenEnv)
	}
	return token, nil
}

func parsePing(s string) (optional.Optional[app.PingType], error) {
	switch s {
	case "":
		return optional.Optional[app.PingType]{}, nil
	case "none":
		return optional.New(app.PingNone), nil
	case "here":
		return optional.New(app.PingHere), nil
	case "everyone":
		return optional.New(app.PingEveryone), nil
	}
	return optional.Optional[app.PingType]{}, fmt.Errorf("unknown ping type: %s", s)
}

func parseColor(s string) (optional.Optional[app.EmbedColor], error) {
	switch s {
	case "":
		return optional.Optional[app.EmbedColor]{}, nil
	case "danger":
		return optional.New(app.ColorDanger), nil
	case "warning":
		return optional.New(app.ColorWarning), nil
	case "info":
		return optional.New(app.ColorInfo), nil
	case "success":
		return optional.New(app.ColorSuccess), nil
	}
	return optional.Optional[app.EmbedColor]{}, fmt.Errorf("unknown color: %s", s)
}
