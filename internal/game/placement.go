package game

import (
	"math/rand"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

// autoPlaceBudget is the number of random (x,y,orientation) triples tried
// per ship before auto-placement gives up.
const autoPlaceBudget = 100

// ShipPosition is where one ship sits on the grid.
type ShipPosition struct {
	OriginX     int         `json:"originX"`
	OriginY     int         `json:"originY"`
	Orientation Orientation `json:"orientation"`
}

// Placement maps ship id to position. It is immutable once its owner
// marks ready.
type Placement map[string]ShipPosition

// ValidatePosition checks that placing (or moving) shipID at the given
// position is legal for the fleet on the given grid: the ship must exist
// in the fleet, fit inside the bounds, and only cells held by other ships
// block it. Returns the grid with the ship placed.
func ValidatePosition(grid Grid, fleet []Ship, shipID string, pos ShipPosition) (Grid, error) {
	sh, ok := fleetShip(fleet, shipID)
	if !ok {
		return nil, apperr.Validation("ship %s is not part of the fleet", shipID)
	}
	return grid.PlaceShip(sh.ID, sh.Size, pos.OriginX, pos.OriginY, pos.Orientation)
}

// BuildGrid materializes a full placement onto an empty grid, rejecting
// overlaps, out-of-bounds runs and ships missing from the fleet. A
// complete placement positions every ship in the fleet exactly once.
func BuildGrid(fleet []Ship, gridSize int, placement Placement) (Grid, error) {
	if len(placement) != len(fleet) {
		return nil, apperr.Validation("placement has %d ships, fleet requires %d", len(placement), len(fleet))
	}
	grid := NewGrid(gridSize)
	for _, sh := range fleet {
		pos, ok := placement[sh.ID]
		if !ok {
			return nil, apperr.Validation("placement missing ship %s", sh.ID)
		}
		next, err := grid.PlaceShip(sh.ID, sh.Size, pos.OriginX, pos.OriginY, pos.Orientation)
		if err != nil {
			return nil, err
		}
		grid = next
	}
	return grid, nil
}

// AutoPlace produces a random legal layout for the whole fleet. Each ship
// gets a fixed retry budget of random positions; exhausting the budget
// fails with an infeasible error and no partial placement escapes. The
// rng is injected so matches replayed with the same seed lay out the same
// board.
func AutoPlace(fleet []Ship, gridSize int, rng *rand.Rand) (Placement, error) {
	if err := ValidateFleet(fleet, gridSize); err != nil {
		return nil, err
	}

	grid := NewGrid(gridSize)
	placement := make(Placement, len(fleet))
	for _, sh := range fleet {
		placed := false
		for attempt := 0; attempt < autoPlaceBudget; attempt++ {
			pos := ShipPosition{
				OriginX:     rng.Intn(gridSize),
				OriginY:     rng.Intn(gridSize),
				Orientation: Horizontal,
			}
			if rng.Intn(2) == 1 {
				pos.Orientation = Vertical
			}
			next, err := grid.PlaceShip(sh.ID, sh.Size, pos.OriginX, pos.OriginY, pos.Orientation)
			if err != nil {
				continue
			}
			grid = next
			placement[sh.ID] = pos
			placed = true
			break
		}
		if !placed {
			return nil, apperr.Infeasible("auto-placement budget exhausted for ship %s on %dx%d grid", sh.ID, gridSize, gridSize)
		}
	}
	return placement, nil
}
