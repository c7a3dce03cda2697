package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antihax/goesi"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/fuelservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/ownerservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/timerservice"
	"github.com/ErikKalkoken/structurewatch/internal/config"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
	"github.com/ErikKalkoken/structurewatch/internal/sso"
	"github.com/ErikKalkoken/structurewatch/internal/statushttp"
)

const (
	userAgent      = "Structurewatch kalkoken87@gmail.com"
	ssoClientIDEnv = "STRUCTUREWATCH_CLIENT_ID"
)

// Sync cadences. Each section is refreshed well within its freshness grace.
const (
	structuresInterval    = 1 * time.Hour
	notificationsInterval = 5 * time.Minute
	forwardingInterval    = 1 * time.Minute
	fuelCheckInterval     = 10 * time.Minute
)

// defined flags
var (
	levelFlag   logLevelFlag
	configFlag  = flag.String("config", "config.yaml", "Path to the configuration file")
	dbFlag      = flag.String("db", "structurewatch.sqlite", "Path to the database file")
	logFileFlag = flag.String("logfile", "", "Write logs to this file instead of the console")
)

func init() {
	levelFlag.value = slog.LevelInfo
	flag.Var(&levelFlag, "loglevel", "set log level")
}

func main() {
	flag.Parse()
	slog.SetLogLoggerLevel(levelFlag.value)
	if *logFileFlag != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   *logFileFlag,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		})
	}
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal(err)
	}
	dbRO, dbRW, err := storage.InitDB(*dbFlag)
	if err != nil {
		log.Fatalf("Failed to initialize database %s: %s", *dbFlag, err)
	}
	defer dbRO.Close()
	defer dbRW.Close()
	st := storage.New(dbRO, dbRW)

	rhc := retryablehttp.NewClient()
	rhc.Logger = slog.Default()
	rhc.ResponseLogHook = logResponse
	httpClient := rhc.StandardClient()
	esiClient := goesi.NewAPIClient(httpClient, userAgent)

	clientID := os.Getenv(ssoClientIDEnv)
	if clientID == "" {
		log.Fatalf("Environment variable %s must be set", ssoClientIDEnv)
	}
	refreshTokens := make(map[int32]string)
	for _, o := range cfg.Owners {
		if o.CharacterID == 0 {
			continue
		}
		token, err := o.RefreshToken()
		if err != nil {
			log.Fatal(err)
		}
		refreshTokens[o.CharacterID] = token
	}
	tokenSource := newSSOTokenSource(sso.New(clientID, httpClient), refreshTokens)

	appCfg := cfg.AppConfig()
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		ESIClient: esiClient,
		Storage:   st,
	})
	ens := evenotification.New(eus, st)
	fs := fuelservice.New(fuelservice.Params{
		Config:             appCfg,
		EveUniverseService: eus,
		Storage:            st,
	})
	tms := timerservice.New(timerservice.Params{
		Config:             appCfg,
		EveUniverseService: eus,
		Storage:            st,
	})
	ows := ownerservice.New(ownerservice.Params{
		Config:                 appCfg,
		EveNotificationService: ens,
		EveUniverseService:     eus,
		Storage:                st,
		TokenSource:            tokenSource,
		EsiClient:              esiClient,
		FuelService:            fs,
		HTTPClient:             httpClient,
		TimerService:           tms,
	})
	fs.SetDispatcher(ows)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ownerIDs, err := applyConfig(ctx, st, ows, cfg)
	if err != nil {
		log.Fatal(err)
	}
	fuelAlerts, err := cfg.FuelAlertConfigs()
	if err != nil {
		log.Fatal(err)
	}
	jumpFuelAlerts, err := cfg.JumpFuelAlertConfigs()
	if err != nil {
		log.Fatal(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, ownerID := range ownerIDs {
		g.Go(func() error {
			return runPeriodic(ctx, structuresInterval, "structures", func(ctx context.Context) error {
				return ows.UpdateStructuresESI(ctx, ownerID)
			})
		})
		g.Go(func() error {
			return runPeriodic(ctx, notificationsInterval, "notifications", func(ctx context.Context) error {
				return ows.FetchNotificationsESI(ctx, ownerID)
			})
		})
		g.Go(func() error {
			return runPeriodic(ctx, forwardingInterval, "forwarding", func(ctx context.Context) error {
				return ows.SendNewNotifications(ctx, ownerID)
			})
		})
	}
	if len(fuelAlerts) > 0 || len(jumpFuelAlerts) > 0 {
		g.Go(func() error {
			return runPeriodic(ctx, fuelCheckInterval, "fuel alerts", func(ctx context.Context) error {
				if err := fs.CheckFuelAlerts(ctx, fuelAlerts); err != nil {
					return err
				}
				return fs.CheckJumpFuelAlerts(ctx, jumpFuelAlerts)
			})
		})
	}

	server := &http.Server{
		Addr:    cfg.StatusAddress,
		Handler: statushttp.New(st).Router(),
	}
	g.Go(func() error {
		slog.Info("Status endpoint started", "address", cfg.StatusAddress)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	slog.Info("Service started", "owners", len(ownerIDs), "webhooks", len(cfg.Webhooks))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	slog.Info("Service stopped")
}

// applyConfig mirrors the configured webhooks and owners into the database
// and returns the IDs of all configured owners.
func applyConfig(ctx context.Context, st *storage.Storage, ows *ownerservice.OwnerService, cfg config.Config) ([]int32, error) {
	webhookIDs := make(map[string]int64)
	for _, w := range cfg.Webhooks {
		types := app.NotificationTypesSupported()
		if len(w.NotificationTypes) > 0 {
			types = set.Of[app.NotificationType]()
			for _, nt := range w.NotificationTypes {
				types.Add(app.NotificationType(nt))
			}
		}
		lang := w.Language
		if lang == "" {
			lang = cfg.DefaultLanguage
		}
		id, err := st.UpdateOrCreateWebhook(ctx, storage.UpdateOrCreateWebhookParams{
			HasDefaultPingsEnabled: w.HasDefaultPingsEnabled,
			IsActive:               true,
			IsDefault:              w.IsDefault,
			Language:               language.MustParse(lang),
			Name:                   w.Name,
			NotificationTypes:      types,
			PingGroups:             w.PingGroups,
			URL:                    w.URL,
		})
		if err != nil {
			return nil, err
		}
		webhookIDs[w.Name] = id
	}
	ownerIDs := make([]int32, 0, len(cfg.Owners))
	for _, o := range cfg.Owners {
		var characterID optional.Optional[int32]
		if o.CharacterID != 0 {
			characterID = optional.New(o.CharacterID)
		}
		ids := make([]int64, 0, len(o.Webhooks))
		for _, name := range o.Webhooks {
			ids = append(ids, webhookIDs[name])
		}
		_, err := ows.AddOwner(ctx, ownerservice.AddOwnerParams{
			CorporationID:          o.CorporationID,
			CharacterID:            characterID,
			HasDefaultPingsEnabled: o.HasDefaultPingsEnabled,
			IsAllianceMain:         o.IsAllianceMain,
			PingGroups:             o.PingGroups,
			WebhookIDs:             ids,
		})
		if err != nil {
			return nil, err
		}
		ownerIDs = append(ownerIDs, o.CorporationID)
	}
	return ownerIDs, nil
}

// runPeriodic runs f immediately and then on every tick until the context is done.
// Errors from f are logged and do not stop the loop.
func runPeriodic(ctx context.Context, interval time.Duration, name string, f func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := f(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Periodic task failed", "task", name, "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
