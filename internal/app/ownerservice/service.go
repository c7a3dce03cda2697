// Package ownerservice orchestrates the sync of owners with ESI
// and the forwarding of their notifications to Discord webhooks.
//
// Each owner is synced in three sections: structures, notifications and forwarding.
// The outcome of every section sync is recorded, so the up state of an owner
// can be derived from the freshness of its sections.
package ownerservice

import (
	"net/http"
	"sync"
	"time"

	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/fuelservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/timerservice"
	"github.com/ErikKalkoken/structurewatch/internal/discordhook"
)

// OwnerService syncs owners with ESI and forwards their notifications.
type OwnerService struct {
	// Now returns the current time in UTC. Can be overwritten for tests.
	Now func() time.Time

	cfg        app.Config
	ens        *evenotification.EveNotificationService
	esiClient  *goesi.APIClient
	eus        *eveuniverseservice.EveUniverseService
	fs         *fuelservice.FuelService
	httpClient *http.Client
	sfg        *singleflight.Group
	st         *storage.Storage
	tms        *timerservice.TimerService
	ts         TokenSource

	mu             sync.Mutex
	webhookClients map[int64]*discordhook.Client
}

type Params struct {
	Config                 app.Config
	EveNotificationService *evenotification.EveNotificationService
	EveUniverseService     *eveuniverseservice.EveUniverseService
	Storage                *storage.Storage
	TokenSource            TokenSource
	// optional
	EsiClient    *goesi.APIClient
	FuelService  *fuelservice.FuelService
	HTTPClient   *http.Client
	TimerService *timerservice.TimerService
}

// New creates a new owner service and returns it.
// When nil is passed for an optional parameter a default instance will be created for it.
func New(arg Params) *OwnerService {
	s := &OwnerService{
		Now:            func() time.Time { return time.Now().UTC() },
		cfg:            arg.Config,
		ens:            arg.EveNotificationService,
		eus:            arg.EveUniverseService,
		fs:             arg.FuelService,
		sfg:            new(singleflight.Group),
		st:             arg.Storage,
		tms:            arg.TimerService,
		ts:             arg.TokenSource,
		webhookClients: make(map[int64]*discordhook.Client),
	}
	if arg.HTTPClient == nil {
		s.httpClient = http.DefaultClient
	} else {
		s.httpClient = arg.HTTPClient
	}
	if arg.EsiClient == nil {
		s.esiClient = goesi.NewAPIClient(s.httpClient, "")
	} else {
		s.esiClient = arg.EsiClient
	}
	return s
}

// webhookClient returns the Discord client for a webhook, creating it on first use.
func (s *OwnerService) webhookClient(w *app.Webhook) *discordhook.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.webhookClients[w.ID]
	if !ok {
		c = discordhook.NewClient(s.httpClient, w.URL)
		s.webhookClients[w.ID] = c
	}
	return c
}
