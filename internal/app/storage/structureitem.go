package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

type CreateStructureItemParams struct {
	ID           int64
	EveTypeID    int32
	IsSingleton  bool
	LocationFlag string
	Quantity     int
	StructureID  int64
}

func (arg CreateStructureItemParams) isValid() bool {
	return arg.ID != 0 && arg.EveTypeID != 0 && arg.StructureID != 0
}

// ReplaceStructureItems replaces all stored items of a structure with the given set.
func (st *Storage) ReplaceStructureItems(ctx context.Context, structureID int64, args []CreateStructureItemParams) error {
	if structureID == 0 {
		return fmt.Errorf("ReplaceStructureItems: %w", app.ErrInvalid)
	}
	for _, arg := range args {
		if !arg.isValid() || arg.StructureID != structureID {
			return fmt.Errorf("ReplaceStructureItems %d: %+v: %w", structureID, arg, app.ErrInvalid)
		}
	}
	err := st.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM structure_items WHERE structure_id = ?", structureID); err != nil {
			return err
		}
		for _, arg := range args {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO structure_items (id, eve_type_id, is_singleton, location_flag, quantity, structure_id)
				VALUES (?, ?, ?, ?, ?, ?)`,
				arg.ID,
				arg.EveTypeID,
				arg.IsSingleton,
				arg.LocationFlag,
				arg.Quantity,
				arg.StructureID,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ReplaceStructureItems %d: %w", structureID, err)
	}
	return nil
}

// ListStructureItems returns the stored items of a structure.
func (st *Storage) ListStructureItems(ctx context.Context, structureID int64) ([]*app.StructureItem, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		`SELECT id, eve_type_id, is_singleton, location_flag, quantity, structure_id
		FROM structure_items WHERE structure_id = ? ORDER BY id`,
		structureID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListStructureItems %d: %w", structureID, err)
	}
	defer rows.Close()
	oo := make([]*app.StructureItem, 0)
	for rows.Next() {
		var o app.StructureItem
		var typeID int32
		if err := rows.Scan(&o.ID, &typeID, &o.IsSingleton, &o.LocationFlag, &o.Quantity, &o.StructureID); err != nil {
			return nil, fmt.Errorf("ListStructureItems %d: %w", structureID, err)
		}
		t, err := st.GetEveType(ctx, typeID)
		if err != nil {
			return nil, fmt.Errorf("ListStructureItems %d: %w", structureID, err)
		}
		o.Type = t
		oo = append(oo, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStructureItems %d: %w", structureID, err)
	}
	return oo, nil
}
