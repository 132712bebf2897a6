package game

import "github.com/seastrike/seastrike-backend/internal/apperr"

type ShipType string

const (
	Carrier    ShipType = "Carrier"
	Battleship ShipType = "Battleship"
	Cruiser    ShipType = "Cruiser"
	Destroyer  ShipType = "Destroyer"
	Scout      ShipType = "Scout"
)

type Ship struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// DefaultFleet is the standard five-ship set. Ship ids double as map keys
// in placements, so they must be unique within a fleet.
func DefaultFleet() []Ship {
	return []Ship{
		{ID: "carrier", Name: string(Carrier), Size: 5},
		{ID: "battleship", Name: string(Battleship), Size: 4},
		{ID: "cruiser", Name: string(Cruiser), Size: 3},
		{ID: "destroyer", Name: string(Destroyer), Size: 2},
		{ID: "scout", Name: string(Scout), Size: 2},
	}
}

// ValidateFleet rejects fleets with duplicate ids, non-positive sizes or
// more total ship cells than the grid can hold.
func ValidateFleet(fleet []Ship, gridSize int) error {
	if len(fleet) == 0 {
		return apperr.Validation("fleet must contain at least one ship")
	}
	seen := make(map[string]struct{}, len(fleet))
	totalCells := 0
	for _, sh := range fleet {
		if sh.ID == "" {
			return apperr.Validation("ship id cannot be empty")
		}
		if _, dup := seen[sh.ID]; dup {
			return apperr.Validation("duplicate ship id: %s", sh.ID)
		}
		seen[sh.ID] = struct{}{}
		if sh.Size < 1 {
			return apperr.Validation("ship %s has invalid size %d", sh.ID, sh.Size)
		}
		if sh.Size > gridSize {
			return apperr.Validation("ship %s (size %d) cannot fit on a %dx%d grid", sh.ID, sh.Size, gridSize, gridSize)
		}
		totalCells += sh.Size
	}
	if totalCells > gridSize*gridSize {
		return apperr.Validation("fleet occupies %d cells, grid only has %d", totalCells, gridSize*gridSize)
	}
	return nil
}

func fleetShip(fleet []Ship, shipID string) (Ship, bool) {
	for _, sh := range fleet {
		if sh.ID == shipID {
			return sh, true
		}
	}
	return Ship{}, false
}
