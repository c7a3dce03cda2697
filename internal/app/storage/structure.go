package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type UpdateOrCreateStructureParams struct {
	StructureID      int64
	EveMoonID        optional.Optional[int32]
	EvePlanetID      optional.Optional[int32]
	EveSolarSystemID int32
	EveTypeID        optional.Optional[int32]
	FuelExpires      optional.Optional[time.Time]
	LastOnline       optional.Optional[time.Time]
	Name             string
	OwnerID          int32
	Position         optional.Optional[app.Position]
	ReinforceHour    optional.Optional[int64]
	State            app.StructureState
	StateTimerEnd    optional.Optional[time.Time]
	UnanchorsAt      optional.Optional[time.Time]
}

func (arg UpdateOrCreateStructureParams) isValid() bool {
	return arg.StructureID != 0 && arg.OwnerID != 0 && arg.EveSolarSystemID != 0
}

// UpdateOrCreateStructure stores a structure.
// The webhook override is user configuration and is preserved when the structure already exists.
func (st *Storage) UpdateOrCreateStructure(ctx context.Context, arg UpdateOrCreateStructureParams) error {
	if !arg.isValid() {
		return fmt.Errorf("UpdateOrCreateStructure: %+v: %w", arg, app.ErrInvalid)
	}
	var positionX, positionY, positionZ sql.NullFloat64
	if p, err := arg.Position.Value(); err == nil {
		positionX = sql.NullFloat64{Float64: p.X, Valid: true}
		positionY = sql.NullFloat64{Float64: p.Y, Valid: true}
		positionZ = sql.NullFloat64{Float64: p.Z, Valid: true}
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		`INSERT INTO structures (
			id,
			eve_moon_id,
			eve_planet_id,
			eve_solar_system_id,
			eve_type_id,
			fuel_expires,
			last_online,
			name,
			owner_id,
			position_x,
			position_y,
			position_z,
			reinforce_hour,
			state,
			state_timer_end,
			unanchors_at,
			webhook_ids
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]')
		ON CONFLICT (id) DO UPDATE SET
			eve_moon_id = excluded.eve_moon_id,
			eve_planet_id = excluded.eve_planet_id,
			eve_solar_system_id = excluded.eve_solar_system_id,
			eve_type_id = excluded.eve_type_id,
			fuel_expires = excluded.fuel_expires,
			last_online = excluded.last_online,
			name = excluded.name,
			owner_id = excluded.owner_id,
			position_x = excluded.position_x,
			position_y = excluded.position_y,
			position_z = excluded.position_z,
			reinforce_hour = excluded.reinforce_hour,
			state = excluded.state,
			state_timer_end = excluded.state_timer_end,
			unanchors_at = excluded.unanchors_at`,
		arg.StructureID,
		optional.ToNullInt64(arg.EveMoonID),
		optional.ToNullInt64(arg.EvePlanetID),
		arg.EveSolarSystemID,
		optional.ToNullInt64(arg.EveTypeID),
		newNullTimeFromOptional(arg.FuelExpires),
		newNullTimeFromOptional(arg.LastOnline),
		arg.Name,
		arg.OwnerID,
		positionX,
		positionY,
		positionZ,
		newNullInt64FromOptionalInt(arg.ReinforceHour),
		arg.State,
		newNullTimeFromOptional(arg.StateTimerEnd),
		newNullTimeFromOptional(arg.UnanchorsAt),
	)
	if err != nil {
		return fmt.Errorf("UpdateOrCreateStructure: %+v: %w", arg, err)
	}
	return nil
}

// UpdateStructureWebhooks stores the webhook override of a structure.
func (st *Storage) UpdateStructureWebhooks(ctx context.Context, structureID int64, webhookIDs []int64) error {
	if webhookIDs == nil {
		webhookIDs = []int64{}
	}
	v, err := jsonEncode(webhookIDs)
	if err != nil {
		return fmt.Errorf("UpdateStructureWebhooks %d: %w", structureID, err)
	}
	result, err := st.dbRW.ExecContext(ctx, "UPDATE structures SET webhook_ids = ? WHERE id = ?", v, structureID)
	if err != nil {
		return fmt.Errorf("UpdateStructureWebhooks %d: %w", structureID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStructureWebhooks %d: %w", structureID, err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStructureWebhooks %d: %w", structureID, app.ErrNotFound)
	}
	return nil
}

const structureSelect = `
	SELECT
		id,
		eve_moon_id,
		eve_planet_id,
		eve_solar_system_id,
		eve_type_id,
		fuel_expires,
		last_online,
		name,
		owner_id,
		position_x,
		position_y,
		position_z,
		reinforce_hour,
		state,
		state_timer_end,
		unanchors_at,
		webhook_ids
	FROM structures
`

// GetStructure returns a structure.
// Returns [app.ErrNotFound] when the structure is not tracked.
func (st *Storage) GetStructure(ctx context.Context, id int64) (*app.Structure, error) {
	row := st.dbRO.QueryRowContext(ctx, structureSelect+"WHERE id = ?", id)
	o, err := st.scanStructure(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("GetStructure %d: %w", id, convertGetError(err))
	}
	return o, nil
}

// ListStructuresForOwner returns all structures of an owner ordered by ID.
func (st *Storage) ListStructuresForOwner(ctx context.Context, ownerID int32) ([]*app.Structure, error) {
	return st.listStructures(ctx, structureSelect+"WHERE owner_id = ? ORDER BY id", ownerID)
}

// ListStructures returns all structures ordered by ID.
func (st *Storage) ListStructures(ctx context.Context) ([]*app.Structure, error) {
	return st.listStructures(ctx, structureSelect+"ORDER BY id")
}

func (st *Storage) listStructures(ctx context.Context, query string, args ...any) ([]*app.Structure, error) {
	rows, err := st.dbRO.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listStructures: %w", err)
	}
	defer rows.Close()
	oo := make([]*app.Structure, 0)
	for rows.Next() {
		o, err := st.scanStructure(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("listStructures: %w", err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listStructures: %w", err)
	}
	return oo, nil
}

// ListStructureIDsForOwner returns the IDs of all structures of an owner.
func (st *Storage) ListStructureIDsForOwner(ctx context.Context, ownerID int32) (set.Set[int64], error) {
	rows, err := st.dbRO.QueryContext(ctx, "SELECT id FROM structures WHERE owner_id = ?", ownerID)
	if err != nil {
		return set.Set[int64]{}, fmt.Errorf("ListStructureIDsForOwner %d: %w", ownerID, err)
	}
	defer rows.Close()
	ids := set.Set[int64]{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return set.Set[int64]{}, fmt.Errorf("ListStructureIDsForOwner %d: %w", ownerID, err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return set.Set[int64]{}, fmt.Errorf("ListStructureIDsForOwner %d: %w", ownerID, err)
	}
	return ids, nil
}

// DeleteStructures removes structures including their fuel alert markers.
func (st *Storage) DeleteStructures(ctx context.Context, ids set.Set[int64]) error {
	if ids.Size() == 0 {
		return nil
	}
	query, args := queryWithIDs("DELETE FROM structures WHERE id IN (%s)", ids.Slice())
	if _, err := st.dbRW.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("DeleteStructures: %w", err)
	}
	return nil
}

func (st *Storage) scanStructure(ctx context.Context, r rowScanner) (*app.Structure, error) {
	var (
		id            int64
		moonID        sql.NullInt64
		planetID      sql.NullInt64
		solarSystemID int64
		typeID        sql.NullInt64
		fuelExpires   sql.NullTime
		lastOnline    sql.NullTime
		name          string
		ownerID       int64
		positionX     sql.NullFloat64
		positionY     sql.NullFloat64
		positionZ     sql.NullFloat64
		reinforceHour sql.NullInt64
		state         int64
		stateTimerEnd sql.NullTime
		unanchorsAt   sql.NullTime
		webhookIDs    string
	)
	err := r.Scan(
		&id,
		&moonID,
		&planetID,
		&solarSystemID,
		&typeID,
		&fuelExpires,
		&lastOnline,
		&name,
		&ownerID,
		&positionX,
		&positionY,
		&positionZ,
		&reinforceHour,
		&state,
		&stateTimerEnd,
		&unanchorsAt,
		&webhookIDs,
	)
	if err != nil {
		return nil, err
	}
	webhookIDs2, err := jsonDecode[[]int64](webhookIDs)
	if err != nil {
		return nil, err
	}
	o := &app.Structure{
		StructureID:   id,
		FuelExpires:   optionalFromNullTime(fuelExpires),
		LastOnline:    optionalFromNullTime(lastOnline),
		Name:          name,
		OwnerID:       int32(ownerID),
		ReinforceHour: optionalIntFromNullInt64(reinforceHour),
		State:         app.StructureState(state),
		StateTimerEnd: optionalFromNullTime(stateTimerEnd),
		UnanchorsAt:   optionalFromNullTime(unanchorsAt),
		WebhookIDs:    webhookIDs2,
	}
	if positionX.Valid && positionY.Valid && positionZ.Valid {
		o.Position = optional.New(app.Position{
			X: positionX.Float64,
			Y: positionY.Float64,
			Z: positionZ.Float64,
		})
	}
	o.System, err = st.getEveSolarSystem(ctx, int32(solarSystemID))
	if err != nil {
		return nil, err
	}
	if moonID.Valid {
		o.Moon, err = st.GetEveMoon(ctx, int32(moonID.Int64))
		if err != nil {
			return nil, err
		}
	}
	if planetID.Valid {
		o.Planet, err = st.GetEvePlanet(ctx, int32(planetID.Int64))
		if err != nil {
			return nil, err
		}
	}
	if typeID.Valid {
		o.Type, err = st.GetEveType(ctx, int32(typeID.Int64))
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}
