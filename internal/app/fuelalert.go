package app

import (
	"fmt"
	"math"

	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

// FuelAlertConfig defines a window of fuel alerts relative to a structure's fuel expiry.
// Start and End are hours before fuel expiry, Repeat is hours between alerts.
// A Repeat of 0 means a single alert at Start.
type FuelAlertConfig struct {
	ID            int64
	ColorOverride optional.Optional[EmbedColor]
	End           int
	PingOverride  optional.Optional[PingType]
	Repeat        int
	Start         int
}

// Validate checks a config for internal consistency.
func (c FuelAlertConfig) Validate() error {
	if c.Start <= c.End {
		return fmt.Errorf("fuel alert config %d: start must be before end: %w", c.ID, ErrConfigOverlap)
	}
	if c.Repeat < 0 || c.Repeat >= c.Start-c.End {
		return fmt.Errorf("fuel alert config %d: repeat must fit into the window: %w", c.ID, ErrConfigOverlap)
	}
	return nil
}

// Overlaps reports whether the alert windows of two configs overlap.
// Windows are half open, so a window ending where another starts does not overlap.
func (c FuelAlertConfig) Overlaps(other FuelAlertConfig) bool {
	return c.Start > other.End && other.Start > c.End
}

// ValidateFuelAlertConfigs checks a set of configs for validity and pairwise overlap.
func ValidateFuelAlertConfigs(configs []FuelAlertConfig) error {
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for i, a := range configs {
		for _, b := range configs[i+1:] {
			if a.Overlaps(b) {
				return fmt.Errorf(
					"fuel alert configs %d and %d have overlapping windows: %w",
					a.ID, b.ID, ErrConfigOverlap,
				)
			}
		}
	}
	return nil
}

// Checkpoint returns the alert checkpoint in hours before fuel expiry
// for a structure with hoursLeft hours of fuel remaining,
// i.e. hoursLeft rounded down to the checkpoint grid anchored at Start.
// It reports false when hoursLeft is outside the alert window.
func (c FuelAlertConfig) Checkpoint(hoursLeft float64) (int, bool) {
	if hoursLeft > float64(c.Start) || hoursLeft < float64(c.End) {
		return 0, false
	}
	if c.Repeat == 0 {
		return c.Start, true
	}
	x := c.Start - int(math.Ceil((float64(c.Start)-hoursLeft)/float64(c.Repeat)))*c.Repeat
	return x, true
}

// FuelAlert marks a fuel alert as sent for a structure at a checkpoint,
// so the same alert is not sent twice.
type FuelAlert struct {
	ID          int64
	ConfigID    int64
	Hours       int
	StructureID int64
}

// JumpFuelAlertConfig defines an alert threshold for liquid ozone in jump gates.
type JumpFuelAlertConfig struct {
	ID            int64
	ColorOverride optional.Optional[EmbedColor]
	PingOverride  optional.Optional[PingType]
	Threshold     int
}

// JumpFuelAlert marks a jump fuel alert as sent for a structure.
type JumpFuelAlert struct {
	ID          int64
	ConfigID    int64
	StructureID int64
}
