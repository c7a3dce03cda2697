// Package statushttp serves the operational status of the service over HTTP.
package statushttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

// OwnerLister provides the owners whose sync status is reported.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]*app.Owner, error)
}

type sectionStatus struct {
	Error    string `json:"error,omitempty"`
	IsFresh  bool   `json:"isFresh"`
	LastSync string `json:"lastSync,omitempty"`
}

type ownerStatus struct {
	Alliance    string                   `json:"alliance,omitempty"`
	Corporation string                   `json:"corporation"`
	ID          int32                    `json:"id"`
	IsUp        bool                     `json:"isUp"`
	Sections    map[string]sectionStatus `json:"sections"`
}

type statusResponse struct {
	IsUp   bool          `json:"isUp"`
	Owners []ownerStatus `json:"owners"`
	Time   string        `json:"time"`
}

// Server reports the sync health of all owners.
type Server struct {
	// Now returns the current time in UTC. Can be overwritten for tests.
	Now func() time.Time

	owners OwnerLister
}

func New(owners OwnerLister) *Server {
	s := &Server{
		Now:    func() time.Time { return time.Now().UTC() },
		owners: owners,
	}
	return s
}

// Router returns the HTTP router of the server.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	return r
}

// handleStatus reports the up state of the service and its owners.
// The service counts as up when every owner is up.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	owners, err := s.owners.ListOwners(r.Context())
	if err != nil {
		slog.Error("Failed to list owners for status", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	now := s.Now()
	response := statusResponse{
		IsUp:   true,
		Owners: make([]ownerStatus, 0),
		Time:   now.Format(time.RFC3339),
	}
	sections := []app.OwnerSection{app.SectionStructures, app.SectionNotifications, app.SectionForwarding}
	for _, o := range owners {
		isUp := o.IsUpCurrent(now)
		if !isUp {
			response.IsUp = false
		}
		os := ownerStatus{
			Corporation: o.Corporation.Name,
			ID:          o.ID,
			IsUp:        isUp,
			Sections:    make(map[string]sectionStatus),
		}
		if o.Alliance != nil {
			os.Alliance = o.Alliance.Name
		}
		for _, section := range sections {
			status := o.SectionStatus(section)
			ss := sectionStatus{
				IsFresh: status.IsFresh(section, now),
			}
			if !status.IsOK() {
				ss.Error = status.Error.String()
			}
			if v, err := status.UpdatedAt.Value(); err == nil {
				ss.LastSync = v.Format(time.RFC3339)
			}
			os.Sections[section.String()] = ss
		}
		response.Owners = append(response.Owners, os)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to write status response", "error", err)
	}
}
