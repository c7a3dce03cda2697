package ownerservice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/antihax/goesi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification"
	"github.com/ErikKalkoken/structurewatch/internal/app/eveuniverseservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/ownerservice"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage"
	"github.com/ErikKalkoken/structurewatch/internal/app/storage/testutil"
	"github.com/ErikKalkoken/structurewatch/internal/discordhook"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

type fakeTokenSource struct {
	err error
}

func (ts fakeTokenSource) Token(ctx context.Context, characterID int32) (string, error) {
	if ts.err != nil {
		return "", ts.err
	}
	return "access-token", nil
}

func newOwnerService(st *storage.Storage, cfg app.Config) *ownerservice.OwnerService {
	return newOwnerServiceWithTokenSource(st, cfg, fakeTokenSource{})
}

func newOwnerServiceWithTokenSource(st *storage.Storage, cfg app.Config, ts ownerservice.TokenSource) *ownerservice.OwnerService {
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		Storage:   st,
		ESIClient: goesi.NewAPIClient(nil, "test@kalkoken.net"),
	})
	return ownerservice.New(ownerservice.Params{
		Config:                 cfg,
		EveNotificationService: evenotification.New(eus, st),
		EveUniverseService:     eus,
		Storage:                st,
		TokenSource:            ts,
	})
}

// makeLowPowerNotification creates a stored notification which can be rendered
// without further ESI calls.
func makeLowPowerNotification(factory testutil.Factory, ownerID int32) *app.Notification {
	system := factory.CreateEveSolarSystem()
	structureType := factory.CreateEveTypeStructure()
	text := fmt.Sprintf(
		"solarsystemID: %d\nstructureID: 1000000000001\nstructureTypeID: %d\n",
		system.ID, structureType.ID,
	)
	return factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
		OwnerID: ownerID,
		Type:    string(app.StructureWentLowPower),
		Text:    text,
	})
}

func TestSendNewNotifications(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	t.Run("should deliver notification to all owner webhooks and mark it as sent", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		w2 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID, w2.ID},
		})
		n := makeLowPowerNotification(factory, owner.ID)
		httpmock.RegisterResponder("POST", w1.URL, httpmock.NewStringResponder(204, ""))
		httpmock.RegisterResponder("POST", w2.URL, httpmock.NewStringResponder(204, ""))
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 2, httpmock.GetTotalCallCount())
			n2, err := st.GetNotification(ctx, owner.ID, n.NotificationID)
			if assert.NoError(t, err) {
				assert.True(t, n2.IsSent)
			}
			owner2, err := st.GetOwner(ctx, owner.ID)
			if assert.NoError(t, err) {
				assert.True(t, owner2.ForwardingSync.IsOK())
			}
		}
	})
	t.Run("should not mark notification as sent when a delivery fails", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		w2 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID, w2.ID},
		})
		n := makeLowPowerNotification(factory, owner.ID)
		httpmock.RegisterResponder("POST", w1.URL, httpmock.NewStringResponder(204, ""))
		httpmock.RegisterResponder("POST", w2.URL, httpmock.NewStringResponder(500, "oops"))
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			n2, err := st.GetNotification(ctx, owner.ID, n.NotificationID)
			if assert.NoError(t, err) {
				assert.False(t, n2.IsSent)
			}
		}
	})
	t.Run("should suppress attack from NPC corporation when reporting is disabled", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		cfg := app.DefaultConfig()
		cfg.ReportNPCAttacks = false
		s := newOwnerService(st, cfg)
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID},
		})
		factory.CreateEveEntityCorporation(app.EveEntity{ID: 1000127, Name: "Guristas"})
		text := "charID: 1011\ncorpLinkData:\n- showinfo\n- 2\n- 1000127\ncorpName: Guristas\nsolarsystemID: 30002537\nstructureID: 1000000000001\nstructureTypeID: 35832\n"
		factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID: owner.ID,
			Type:    string(app.StructureUnderAttack),
			Text:    text,
		})
		httpmock.RegisterResponder("POST", w1.URL, httpmock.NewStringResponder(204, ""))
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 0, httpmock.GetTotalCallCount())
		}
	})
	t.Run("should skip alliance level notifications for owners which are not the alliance main", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			AllianceID: optional.New(int32(3001)),
			WebhookIDs: []int64{w1.ID},
		})
		factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID: owner.ID,
			Type:    string(app.SovAllClaimLostMsg),
			Text:    "allianceID: 3001\nsolarSystemID: 30002537\n",
		})
		httpmock.RegisterResponder("POST", w1.URL, httpmock.NewStringResponder(204, ""))
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 0, httpmock.GetTotalCallCount())
		}
	})
	t.Run("should include pings in the message content", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook(storage.UpdateOrCreateWebhookParams{
			HasDefaultPingsEnabled: true,
			PingGroups:             []string{"drifters"},
		})
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			HasDefaultPingsEnabled: true,
			PingGroups:             []string{"milita"},
			WebhookIDs:             []int64{w1.ID},
		})
		makeLowPowerNotification(factory, owner.ID)
		var got discordhook.Message
		httpmock.RegisterResponder("POST", w1.URL, func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(204, ""), nil
		})
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "@everyone @milita @drifters", got.Content)
			assert.Equal(t, "Structurewatch", got.Username)
			if assert.Len(t, got.Embeds, 1) {
				assert.Equal(t, "Received from EVE Online", got.Embeds[0].Footer.Text)
			}
		}
	})
	t.Run("should apply ping and color overrides", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook(storage.UpdateOrCreateWebhookParams{
			HasDefaultPingsEnabled: true,
		})
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			HasDefaultPingsEnabled: true,
			WebhookIDs:             []int64{w1.ID},
		})
		system := factory.CreateEveSolarSystem()
		structureType := factory.CreateEveTypeStructure()
		text := fmt.Sprintf(
			"solarsystemID: %d\nstructureID: 1000000000001\nstructureTypeID: %d\n",
			system.ID, structureType.ID,
		)
		factory.CreateNotification(storage.UpdateOrCreateNotificationParams{
			OwnerID:       owner.ID,
			Type:          string(app.StructureWentLowPower),
			Text:          text,
			PingOverride:  optional.New(app.PingNone),
			ColorOverride: optional.New(app.ColorSuccess),
		})
		var got discordhook.Message
		httpmock.RegisterResponder("POST", w1.URL, func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(204, ""), nil
		})
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, "", got.Content)
			if assert.Len(t, got.Embeds, 1) {
				assert.Equal(t, int32(app.ColorSuccess), got.Embeds[0].Color)
			}
		}
	})
	t.Run("should prefer alliance as embed author for the alliance main", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			AllianceID:     optional.New(int32(3001)),
			IsAllianceMain: true,
			WebhookIDs:     []int64{w1.ID},
		})
		makeLowPowerNotification(factory, owner.ID)
		var got discordhook.Message
		httpmock.RegisterResponder("POST", w1.URL, func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(204, ""), nil
		})
		// when
		err := s.SendNewNotifications(ctx, owner.ID)
		// then
		if assert.NoError(t, err) && assert.Len(t, got.Embeds, 1) {
			if assert.NotNil(t, got.Embeds[0].Author) {
				assert.Equal(t, owner.Alliance.Name, got.Embeds[0].Author.Name)
			}
		}
	})
}

func TestSendGeneratedNotification(t *testing.T) {
	db, st, factory := testutil.New()
	defer db.Close()
	ctx := context.Background()
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	t.Run("should deliver a temporary notification without persisting it", func(t *testing.T) {
		// given
		testutil.TruncateTables(db)
		httpmock.Reset()
		s := newOwnerService(st, app.DefaultConfig())
		w1 := factory.CreateWebhook()
		owner := factory.CreateOwner(storage.UpdateOrCreateOwnerParams{
			WebhookIDs: []int64{w1.ID},
		})
		system := factory.CreateEveSolarSystem()
		structureType := factory.CreateEveTypeStructure()
		n := &app.Notification{
			NotificationID: app.TemporaryNotificationID,
			OwnerID:        owner.ID,
			Type:           string(app.StructureWentLowPower),
			Text: fmt.Sprintf(
				"solarsystemID: %d\nstructureID: 1000000000001\nstructureTypeID: %d\n",
				system.ID, structureType.ID,
			),
			Timestamp: time.Now().UTC(),
		}
		httpmock.RegisterResponder("POST", w1.URL, httpmock.NewStringResponder(204, ""))
		// when
		err := s.SendGeneratedNotification(ctx, n)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
			notifications, err := st.ListUnsentNotificationsForOwner(ctx, owner.ID, time.Now().Add(-time.Hour))
			if assert.NoError(t, err) {
				assert.Len(t, notifications, 0)
			}
		}
	})
}
