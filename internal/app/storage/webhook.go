package storage

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type UpdateOrCreateWebhookParams struct {
	HasDefaultPingsEnabled bool
	IsActive               bool
	IsDefault              bool
	Language               language.Tag
	Name                   string
	NotificationTypes      set.Set[app.NotificationType]
	PingGroups             []string
	URL                    string
}

func (arg UpdateOrCreateWebhookParams) isValid() bool {
	return arg.Name != "" && arg.URL != ""
}

// UpdateOrCreateWebhook stores a webhook keyed by name and returns its ID.
func (st *Storage) UpdateOrCreateWebhook(ctx context.Context, arg UpdateOrCreateWebhookParams) (int64, error) {
	if !arg.isValid() {
		return 0, fmt.Errorf("UpdateOrCreateWebhook: %+v: %w", arg, app.ErrInvalid)
	}
	if arg.PingGroups == nil {
		arg.PingGroups = []string{}
	}
	types := arg.NotificationTypes.Slice()
	slices.Sort(types)
	notificationTypes, err := jsonEncode(types)
	if err != nil {
		return 0, fmt.Errorf("UpdateOrCreateWebhook: %+v: %w", arg, err)
	}
	pingGroups, err := jsonEncode(arg.PingGroups)
	if err != nil {
		return 0, fmt.Errorf("UpdateOrCreateWebhook: %+v: %w", arg, err)
	}
	var id int64
	err = st.dbRW.QueryRowContext(
		ctx,
		`INSERT INTO webhooks (
			has_default_pings_enabled,
			is_active,
			is_default,
			language,
			name,
			notification_types,
			ping_groups,
			url
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			has_default_pings_enabled = excluded.has_default_pings_enabled,
			is_active = excluded.is_active,
			is_default = excluded.is_default,
			language = excluded.language,
			notification_types = excluded.notification_types,
			ping_groups = excluded.ping_groups,
			url = excluded.url
		RETURNING id`,
		arg.HasDefaultPingsEnabled,
		arg.IsActive,
		arg.IsDefault,
		arg.Language.String(),
		arg.Name,
		notificationTypes,
		pingGroups,
		arg.URL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("UpdateOrCreateWebhook: %+v: %w", arg, err)
	}
	return id, nil
}

const webhookSelect = `
	SELECT
		id,
		has_default_pings_enabled,
		is_active,
		is_default,
		language,
		name,
		notification_types,
		ping_groups,
		url
	FROM webhooks
`

func (st *Storage) GetWebhook(ctx context.Context, id int64) (*app.Webhook, error) {
	row := st.dbRO.QueryRowContext(ctx, webhookSelect+"WHERE id = ?", id)
	o, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("GetWebhook %d: %w", id, convertGetError(err))
	}
	return o, nil
}

func (st *Storage) GetWebhookByName(ctx context.Context, name string) (*app.Webhook, error) {
	row := st.dbRO.QueryRowContext(ctx, webhookSelect+"WHERE name = ?", name)
	o, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("GetWebhookByName %s: %w", name, convertGetError(err))
	}
	return o, nil
}

// ListWebhooks returns all webhooks ordered by ID.
func (st *Storage) ListWebhooks(ctx context.Context) ([]*app.Webhook, error) {
	rows, err := st.dbRO.QueryContext(ctx, webhookSelect+"ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListWebhooks: %w", err)
	}
	defer rows.Close()
	oo := make([]*app.Webhook, 0)
	for rows.Next() {
		o, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("ListWebhooks: %w", err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWebhooks: %w", err)
	}
	return oo, nil
}

// ListWebhooksForIDs returns the webhooks for the given IDs ordered by ID.
// Unknown IDs are ignored.
func (st *Storage) ListWebhooksForIDs(ctx context.Context, ids []int64) ([]*app.Webhook, error) {
	if len(ids) == 0 {
		return []*app.Webhook{}, nil
	}
	query, args := queryWithIDs(webhookSelect+"WHERE id IN (%s) ORDER BY id", ids)
	rows, err := st.dbRO.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListWebhooksForIDs: %w", err)
	}
	defer rows.Close()
	oo := make([]*app.Webhook, 0, len(ids))
	for rows.Next() {
		o, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("ListWebhooksForIDs: %w", err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWebhooksForIDs: %w", err)
	}
	return oo, nil
}

func (st *Storage) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := st.dbRW.ExecContext(ctx, "DELETE FROM webhooks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteWebhook %d: %w", id, err)
	}
	return nil
}

func scanWebhook(r rowScanner) (*app.Webhook, error) {
	var (
		id                     int64
		hasDefaultPingsEnabled bool
		isActive               bool
		isDefault              bool
		lang                   string
		name                   string
		notificationTypes      string
		pingGroups             string
		url                    string
	)
	err := r.Scan(
		&id,
		&hasDefaultPingsEnabled,
		&isActive,
		&isDefault,
		&lang,
		&name,
		&notificationTypes,
		&pingGroups,
		&url,
	)
	if err != nil {
		return nil, err
	}
	types, err := jsonDecode[[]app.NotificationType](notificationTypes)
	if err != nil {
		return nil, err
	}
	pingGroups2, err := jsonDecode[[]string](pingGroups)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &app.Webhook{
		ID:                     id,
		HasDefaultPingsEnabled: hasDefaultPingsEnabled,
		IsActive:               isActive,
		IsDefault:              isDefault,
		Language:               tag,
		Name:                   name,
		NotificationTypes:      set.Of(types...),
		PingGroups:             pingGroups2,
		URL:                    url,
	}, nil
}
