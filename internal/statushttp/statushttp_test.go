package statushttp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/statushttp"
)

type fakeOwnerLister struct {
	owners []*app.Owner
	err    error
}

func (f fakeOwnerLister) ListOwners(ctx context.Context) ([]*app.Owner, error) {
	return f.owners, f.err
}

func makeOwner(id int32, lastSync time.Time) *app.Owner {
	status := app.SyncStatus{UpdatedAt: optional.New(lastSync)}
	return &app.Owner{
		ID:                id,
		Corporation:       &app.EveEntity{ID: id, Name: "Wayne Technologies", Category: app.EveEntityCorporation},
		ForwardingSync:    status,
		NotificationsSync: status,
		StructuresSync:    status,
	}
}

func TestStatusEndpoint(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	t.Run("should report owner as up when all sections are fresh", func(t *testing.T) {
		// given
		s := statushttp.New(fakeOwnerLister{owners: []*app.Owner{makeOwner(2001, now.Add(-time.Minute))}})
		s.Now = func() time.Time { return now }
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/status", nil)
		// when
		s.Router().ServeHTTP(w, r)
		// then
		if assert.Equal(t, http.StatusOK, w.Code) {
			var got map[string]any
			if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got)) {
				assert.Equal(t, true, got["isUp"])
				owners := got["owners"].([]any)
				if assert.Len(t, owners, 1) {
					owner := owners[0].(map[string]any)
					assert.Equal(t, true, owner["isUp"])
					sections := owner["sections"].(map[string]any)
					for _, name := range []string{"structures", "notifications", "forwarding"} {
						section := sections[name].(map[string]any)
						assert.Equal(t, true, section["isFresh"], name)
					}
				}
			}
		}
	})
	t.Run("should report owner as down when a section is stale", func(t *testing.T) {
		// given
		owner := makeOwner(2001, now.Add(-time.Minute))
		owner.NotificationsSync = app.SyncStatus{UpdatedAt: optional.New(now.Add(-time.Hour))}
		s := statushttp.New(fakeOwnerLister{owners: []*app.Owner{owner}})
		s.Now = func() time.Time { return now }
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/status", nil)
		// when
		s.Router().ServeHTTP(w, r)
		// then
		if assert.Equal(t, http.StatusOK, w.Code) {
			var got map[string]any
			if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got)) {
				assert.Equal(t, false, got["isUp"])
				owner := got["owners"].([]any)[0].(map[string]any)
				assert.Equal(t, false, owner["isUp"])
				section := owner["sections"].(map[string]any)["notifications"].(map[string]any)
				assert.Equal(t, false, section["isFresh"])
			}
		}
	})
	t.Run("should report section error", func(t *testing.T) {
		// given
		owner := makeOwner(2001, now.Add(-time.Minute))
		owner.StructuresSync = app.SyncStatus{
			Error:     app.SyncErrorTokenExpired,
			UpdatedAt: optional.New(now.Add(-time.Minute)),
		}
		s := statushttp.New(fakeOwnerLister{owners: []*app.Owner{owner}})
		s.Now = func() time.Time { return now }
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/status", nil)
		// when
		s.Router().ServeHTTP(w, r)
		// then
		if assert.Equal(t, http.StatusOK, w.Code) {
			var got map[string]any
			if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got)) {
				owner := got["owners"].([]any)[0].(map[string]any)
				section := owner["sections"].(map[string]any)["structures"].(map[string]any)
				assert.Equal(t, "Expired token", section["error"])
			}
		}
	})
	t.Run("should return 500 when owners can not be listed", func(t *testing.T) {
		// given
		s := statushttp.New(fakeOwnerLister{err: errors.New("boom")})
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/status", nil)
		// when
		s.Router().ServeHTTP(w, r)
		// then
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
