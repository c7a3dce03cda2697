// Package eveuniverseservice contains the Eve universe service.
package eveuniverseservice

import (
	"time"

	"github.com/antihax/goesi"
	"golang.org/x/sync/singleflight"

	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
)

// EveUniverseService provides access to Eve Online models with on-demand loading from ESI and persistent local caching.
type EveUniverseService struct {
	// Now returns the current time in UTC. Can be overwritten for tests.
	Now func() time.Time

	esiClient *goesi.APIClient
	sfg       *singleflight.Group
	st        *storage.Storage
}

type Params struct {
	ESIClient *goesi.APIClient
	Storage   *storage.Storage
}

// New returns a new instance of an Eve universe service.
func New(args Params) *EveUniverseService {
	s := &EveUniverseService{
		esiClient: args.ESIClient,
		st:        args.Storage,
		sfg:       new(singleflight.Group),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
	return s
}
