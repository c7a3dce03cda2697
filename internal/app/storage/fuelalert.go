package storage

import (
	"context"
	"fmt"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

// GetOrCreateFuelAlert records that a fuel alert was sent for a structure
// at a checkpoint of a config and reports whether the marker was newly created.
// A false report means the alert was already sent.
func (st *Storage) GetOrCreateFuelAlert(ctx context.Context, structureID, configID int64, hours int) (bool, error) {
	if structureID == 0 {
		return false, fmt.Errorf("GetOrCreateFuelAlert: %w", app.ErrInvalid)
	}
	result, err := st.dbRW.ExecContext(
		ctx,
		`INSERT INTO fuel_alerts (config_id, hours, structure_id) VALUES (?, ?, ?)
		ON CONFLICT (structure_id, config_id, hours) DO NOTHING`,
		configID, hours, structureID,
	)
	if err != nil {
		return false, fmt.Errorf("GetOrCreateFuelAlert %d: %w", structureID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("GetOrCreateFuelAlert %d: %w", structureID, err)
	}
	return rows > 0, nil
}

// ListFuelAlertsForStructure returns the sent fuel alert markers of a structure.
func (st *Storage) ListFuelAlertsForStructure(ctx context.Context, structureID int64) ([]*app.FuelAlert, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		"SELECT id, config_id, hours, structure_id FROM fuel_alerts WHERE structure_id = ? ORDER BY id",
		structureID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListFuelAlertsForStructure %d: %w", structureID, err)
	}
	defer rows.Close()
	oo := make([]*app.FuelAlert, 0)
	for rows.Next() {
		var o app.FuelAlert
		if err := rows.Scan(&o.ID, &o.ConfigID, &o.Hours, &o.StructureID); err != nil {
			return nil, fmt.Errorf("ListFuelAlertsForStructure %d: %w", structureID, err)
		}
		oo = append(oo, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListFuelAlertsForStructure %d: %w", structureID, err)
	}
	return oo, nil
}

// DeleteFuelAlertsForStructure removes all fuel alert markers of a structure,
// so the next pass over the alert window sends fresh alerts.
func (st *Storage) DeleteFuelAlertsForStructure(ctx context.Context, structureID int64) error {
	_, err := st.dbRW.ExecContext(ctx, "DELETE FROM fuel_alerts WHERE structure_id = ?", structureID)
	if err != nil {
		return fmt.Errorf("DeleteFuelAlertsForStructure %d: %w", structureID, err)
	}
	return nil
}

// GetOrCreateJumpFuelAlert records that a jump fuel alert was sent for a structure
// under a config and reports whether the marker was newly created.
func (st *Storage) GetOrCreateJumpFuelAlert(ctx context.Context, structureID, configID int64) (bool, error) {
	if structureID == 0 {
		return false, fmt.Errorf("GetOrCreateJumpFuelAlert: %w", app.ErrInvalid)
	}
	result, err := st.dbRW.ExecContext(
		ctx,
		`INSERT INTO jump_fuel_alerts (config_id, structure_id) VALUES (?, ?)
		ON CONFLICT (structure_id, config_id) DO NOTHING`,
		configID, structureID,
	)
	if err != nil {
		return false, fmt.Errorf("GetOrCreateJumpFuelAlert %d: %w", structureID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("GetOrCreateJumpFuelAlert %d: %w", structureID, err)
	}
	return rows > 0, nil
}

// ListJumpFuelAlertsForStructure returns the sent jump fuel alert markers of a structure.
func (st *Storage) ListJumpFuelAlertsForStructure(ctx context.Context, structureID int64) ([]*app.JumpFuelAlert, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		"SELECT id, config_id, structure_id FROM jump_fuel_alerts WHERE structure_id = ? ORDER BY id",
		structureID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListJumpFuelAlertsForStructure %d: %w", structureID, err)
	}
	defer rows.Close()
	oo := make([]*app.JumpFuelAlert, 0)
	for rows.Next() {
		var o app.JumpFuelAlert
		if err := rows.Scan(&o.ID, &o.ConfigID, &o.StructureID); err != nil {
			return nil, fmt.Errorf("ListJumpFuelAlertsForStructure %d: %w", structureID, err)
		}
		oo = append(oo, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListJumpFuelAlertsForStructure %d: %w", structureID, err)
	}
	return oo, nil
}

// DeleteJumpFuelAlert removes a single jump fuel alert marker.
func (st *Storage) DeleteJumpFuelAlert(ctx context.Context, id int64) error {
	_, err := st.dbRW.ExecContext(ctx, "DELETE FROM jump_fuel_alerts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteJumpFuelAlert %d: %w", id, err)
	}
	return nil
}

// DeleteJumpFuelAlertsForStructure removes all jump fuel alert markers of a structure.
func (st *Storage) DeleteJumpFuelAlertsForStructure(ctx context.Context, structureID int64) error {
	_, err := st.dbRW.ExecContext(ctx, "DELETE FROM jump_fuel_alerts WHERE structure_id = ?", structureID)
	if err != nil {
		return fmt.Errorf("DeleteJumpFuelAlertsForStructure %d: %w", structureID, err)
	}
	return nil
}
