package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

type UpdateOrCreateOwnerParams struct {
	ID                     int32 // corporation ID
	AllianceID             optional.Optional[int32]
	CharacterID            optional.Optional[int32]
	CharacterName          string
	HasDefaultPingsEnabled bool
	IsAllianceMain         bool
	PingGroups             []string
	WebhookIDs             []int64
}

func (arg UpdateOrCreateOwnerParams) isValid() bool {
	return arg.ID != 0
}

// UpdateOrCreateOwner stores an owner.
// Sync status columns are preserved when the owner already exists.
func (st *Storage) UpdateOrCreateOwner(ctx context.Context, arg UpdateOrCreateOwnerParams) error {
	if !arg.isValid() {
		return fmt.Errorf("UpdateOrCreateOwner: %+v: %w", arg, app.ErrInvalid)
	}
	if arg.PingGroups == nil {
		arg.PingGroups = []string{}
	}
	if arg.WebhookIDs == nil {
		arg.WebhookIDs = []int64{}
	}
	pingGroups, err := jsonEncode(arg.PingGroups)
	if err != nil {
		return fmt.Errorf("UpdateOrCreateOwner: %+v: %w", arg, err)
	}
	webhookIDs, err := jsonEncode(arg.WebhookIDs)
	if err != nil {
		return fmt.Errorf("UpdateOrCreateOwner: %+v: %w", arg, err)
	}
	_, err = st.dbRW.ExecContext(
		ctx,
		`INSERT INTO owners (
			id,
			alliance_id,
			character_id,
			character_name,
			forwarding_sync_error,
			has_default_pings_enabled,
			is_alliance_main,
			notifications_sync_error,
			ping_groups,
			structures_sync_error,
			webhook_ids
		)
		VALUES (?, ?, ?, ?, 0, ?, ?, 0, ?, 0, ?)
		ON CONFLICT (id) DO UPDATE SET
			alliance_id = excluded.alliance_id,
			character_id = excluded.character_id,
			character_name = excluded.character_name,
			has_default_pings_enabled = excluded.has_default_pings_enabled,
			is_alliance_main = excluded.is_alliance_main,
			ping_groups = excluded.ping_groups,
			webhook_ids = excluded.webhook_ids`,
		arg.ID,
		optional.ToNullInt64(arg.AllianceID),
		optional.ToNullInt64(arg.CharacterID),
		arg.CharacterName,
		arg.HasDefaultPingsEnabled,
		arg.IsAllianceMain,
		pingGroups,
		webhookIDs,
	)
	if err != nil {
		return fmt.Errorf("UpdateOrCreateOwner: %+v: %w", arg, err)
	}
	return nil
}

const ownerSelect = `
	SELECT
		ow.id,
		ow.alliance_id,
		ow.character_id,
		ow.character_name,
		ow.forwarding_sync_at,
		ow.forwarding_sync_error,
		ow.has_default_pings_enabled,
		ow.is_alliance_main,
		ow.is_up,
		ow.notifications_sync_at,
		ow.notifications_sync_error,
		ow.ping_groups,
		ow.structures_sync_at,
		ow.structures_sync_error,
		ow.webhook_ids,
		corporation.name,
		alliance.name
	FROM owners ow
	JOIN eve_entities AS corporation ON corporation.id = ow.id
	LEFT JOIN eve_entities AS alliance ON alliance.id = ow.alliance_id
`

func (st *Storage) GetOwner(ctx context.Context, id int32) (*app.Owner, error) {
	row := st.dbRO.QueryRowContext(ctx, ownerSelect+"WHERE ow.id = ?", id)
	o, err := scanOwner(row)
	if err != nil {
		return nil, fmt.Errorf("GetOwner %d: %w", id, convertGetError(err))
	}
	return o, nil
}

// ListOwners returns all owners ordered by ID.
func (st *Storage) ListOwners(ctx context.Context) ([]*app.Owner, error) {
	rows, err := st.dbRO.QueryContext(ctx, ownerSelect+"ORDER BY ow.id")
	if err != nil {
		return nil, fmt.Errorf("ListOwners: %w", err)
	}
	defer rows.Close()
	oo := make([]*app.Owner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("ListOwners: %w", err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOwners: %w", err)
	}
	return oo, nil
}

// UpdateOwnerSyncStatus stores the outcome of a sync run for one owner section.
func (st *Storage) UpdateOwnerSyncStatus(ctx context.Context, ownerID int32, section app.OwnerSection, syncError app.SyncError, at time.Time) error {
	var column string
	switch section {
	case app.SectionStructures:
		column = "structures"
	case app.SectionNotifications:
		column = "notifications"
	case app.SectionForwarding:
		column = "forwarding"
	default:
		return fmt.Errorf("UpdateOwnerSyncStatus %d: section %d: %w", ownerID, section, app.ErrInvalid)
	}
	query := fmt.Sprintf(
		"UPDATE owners SET %s_sync_at = ?, %s_sync_error = ? WHERE id = ?",
		column, column,
	)
	result, err := st.dbRW.ExecContext(ctx, query, at, syncError, ownerID)
	if err != nil {
		return fmt.Errorf("UpdateOwnerSyncStatus %d: %w", ownerID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateOwnerSyncStatus %d: %w", ownerID, err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateOwnerSyncStatus %d: %w", ownerID, app.ErrNotFound)
	}
	return nil
}

// UpdateOwnerIsUp stores the aggregated up state of an owner.
func (st *Storage) UpdateOwnerIsUp(ctx context.Context, ownerID int32, isUp bool) error {
	result, err := st.dbRW.ExecContext(ctx, "UPDATE owners SET is_up = ? WHERE id = ?", isUp, ownerID)
	if err != nil {
		return fmt.Errorf("UpdateOwnerIsUp %d: %w", ownerID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateOwnerIsUp %d: %w", ownerID, err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateOwnerIsUp %d: %w", ownerID, app.ErrNotFound)
	}
	return nil
}

// DeleteOwner removes an owner including its structures and notifications.
func (st *Storage) DeleteOwner(ctx context.Context, ownerID int32) error {
	_, err := st.dbRW.ExecContext(ctx, "DELETE FROM owners WHERE id = ?", ownerID)
	if err != nil {
		return fmt.Errorf("DeleteOwner %d: %w", ownerID, err)
	}
	return nil
}

func scanOwner(r rowScanner) (*app.Owner, error) {
	var (
		id                     int64
		allianceID             sql.NullInt64
		characterID            sql.NullInt64
		characterName          string
		forwardingSyncAt       sql.NullTime
		forwardingSyncError    int64
		hasDefaultPingsEnabled bool
		isAllianceMain         bool
		isUp                   sql.NullBool
		notificationsSyncAt    sql.NullTime
		notificationsSyncError int64
		pingGroups             string
		structuresSyncAt       sql.NullTime
		structuresSyncError    int64
		webhookIDs             string
		corporationName        string
		allianceName           sql.NullString
	)
	err := r.Scan(
		&id,
		&allianceID,
		&characterID,
		&characterName,
		&forwardingSyncAt,
		&forwardingSyncError,
		&hasDefaultPingsEnabled,
		&isAllianceMain,
		&isUp,
		&notificationsSyncAt,
		&notificationsSyncError,
		&pingGroups,
		&structuresSyncAt,
		&structuresSyncError,
		&webhookIDs,
		&corporationName,
		&allianceName,
	)
	if err != nil {
		return nil, err
	}
	pingGroups2, err := jsonDecode[[]string](pingGroups)
	if err != nil {
		return nil, err
	}
	webhookIDs2, err := jsonDecode[[]int64](webhookIDs)
	if err != nil {
		return nil, err
	}
	o := &app.Owner{
		ID:            int32(id),
		CharacterID:   optional.FromNullInt64ToInteger[int32](characterID),
		CharacterName: characterName,
		Corporation: &app.EveEntity{
			ID:       int32(id),
			Name:     corporationName,
			Category: app.EveEntityCorporation,
		},
		ForwardingSync: app.SyncStatus{
			Error:     app.SyncError(forwardingSyncError),
			UpdatedAt: optionalFromNullTime(forwardingSyncAt),
		},
		HasDefaultPingsEnabled: hasDefaultPingsEnabled,
		IsAllianceMain:         isAllianceMain,
		IsUp:                   optionalFromNullBool(isUp),
		NotificationsSync: app.SyncStatus{
			Error:     app.SyncError(notificationsSyncError),
			UpdatedAt: optionalFromNullTime(notificationsSyncAt),
		},
		PingGroups: pingGroups2,
		StructuresSync: app.SyncStatus{
			Error:     app.SyncError(structuresSyncError),
			UpdatedAt: optionalFromNullTime(structuresSyncAt),
		},
		WebhookIDs: webhookIDs2,
	}
	if allianceID.Valid {
		o.Alliance = &app.EveEntity{
			ID:       int32(allianceID.Int64),
			Name:     allianceName.String,
			Category: app.EveEntityAlliance,
		}
	}
	return o, nil
}
