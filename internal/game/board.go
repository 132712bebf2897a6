package game

import (
	"github.com/seastrike/seastrike-backend/internal/apperr"
)

// Grid sizes the settings layer accepts.
var ValidGridSizes = []int{6, 8, 10, 12}

func IsValidGridSize(size int) bool {
	for _, s := range ValidGridSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Cell is one square of a player's defence grid. Hit and Miss are mutually
// exclusive; Hit is only ever set on a cell that held a ship.
type Cell struct {
	ShipID string `json:"shipId,omitempty"`
	Hit    bool   `json:"hit,omitempty"`
	Miss   bool   `json:"miss,omitempty"`
}

func (c Cell) Targeted() bool {
	return c.Hit || c.Miss
}

// Grid is a square matrix of cells indexed grid[y][x].
type Grid [][]Cell

func NewGrid(size int) Grid {
	grid := make(Grid, size)
	for y := range grid {
		grid[y] = make([]Cell, size)
	}
	return grid
}

func (g Grid) Size() int {
	return len(g)
}

func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < len(g) && y < len(g)
}

// Clone returns a deep copy so callers can attempt mutations without
// leaking partial state into the original.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y := range g {
		out[y] = make([]Cell, len(g[y]))
		copy(out[y], g[y])
	}
	return out
}

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// shipCells resolves the run of coordinates a ship occupies from its
// origin. The second return is false when any cell falls out of bounds.
func (g Grid) shipCells(size, originX, originY int, orient Orientation) ([][2]int, bool) {
	cells := make([][2]int, 0, size)
	for i := 0; i < size; i++ {
		x, y := originX, originY
		if orient == Horizontal {
			x += i
		} else {
			y += i
		}
		if !g.InBounds(x, y) {
			return nil, false
		}
		cells = append(cells, [2]int{x, y})
	}
	return cells, true
}

// PlaceShip writes shipID into the run of cells starting at the origin.
// Cells occupied by a different ship block the placement; cells already
// holding the same id do not, so a ship can be moved over itself.
func (g Grid) PlaceShip(shipID string, size, originX, originY int, orient Orientation) (Grid, error) {
	if !orient.Valid() {
		return nil, apperr.Validation("invalid orientation: %s", orient)
	}
	cells, ok := g.shipCells(size, originX, originY, orient)
	if !ok {
		return nil, apperr.IllegalAction("ship %s out of bounds at (%d,%d) %s", shipID, originX, originY, orient)
	}
	for _, c := range cells {
		occupant := g[c[1]][c[0]].ShipID
		if occupant != "" && occupant != shipID {
			return nil, apperr.IllegalAction("ship %s overlaps %s at (%d,%d)", shipID, occupant, c[0], c[1])
		}
	}

	out := g.Clone()
	out.clearShip(shipID)
	for _, c := range cells {
		out[c[1]][c[0]].ShipID = shipID
	}
	return out, nil
}

// RemoveShip clears every cell bearing shipID, restoring the grid to its
// pre-placement shape.
func (g Grid) RemoveShip(shipID string) Grid {
	out := g.Clone()
	out.clearShip(shipID)
	return out
}

func (g Grid) clearShip(shipID string) {
	for y := range g {
		for x := range g[y] {
			if g[y][x].ShipID == shipID {
				g[y][x].ShipID = ""
			}
		}
	}
}

// ShotResult reports what a single shot did to a defence grid.
type ShotResult struct {
	IsHit      bool   `json:"isHit"`
	SunkShipID string `json:"sunkShipId,omitempty"`
}

// ApplyShot marks the cell at (x,y) hit or miss and reports whether the
// shot sank the ship it struck. A cell that was already targeted is
// rejected and the grid is left untouched.
func (g Grid) ApplyShot(x, y int) (Grid, ShotResult, error) {
	if !g.InBounds(x, y) {
		return nil, ShotResult{}, apperr.IllegalAction("shot out of grid bounds: (%d,%d)", x, y)
	}
	if g[y][x].Targeted() {
		return nil, ShotResult{}, apperr.Conflict("cell (%d,%d) already targeted", x, y)
	}

	out := g.Clone()
	var res ShotResult
	if shipID := out[y][x].ShipID; shipID != "" {
		out[y][x].Hit = true
		res.IsHit = true
		if out.shipSunk(shipID) {
			res.SunkShipID = shipID
		}
	} else {
		out[y][x].Miss = true
	}
	return out, res, nil
}

func (g Grid) shipSunk(shipID string) bool {
	found := false
	for y := range g {
		for x := range g[y] {
			if g[y][x].ShipID == shipID {
				found = true
				if !g[y][x].Hit {
					return false
				}
			}
		}
	}
	return found
}

// ShipSunk reports whether every cell bearing shipID has been hit. A ship
// with no cells on the grid is not sunk.
func (g Grid) ShipSunk(shipID string) bool {
	return g.shipSunk(shipID)
}

// AllShipsSunk reports whether every ship cell on the grid has been hit.
// An empty grid has no ships and is never "all sunk".
func (g Grid) AllShipsSunk() bool {
	anyShip := false
	for y := range g {
		for x := range g[y] {
			if g[y][x].ShipID != "" {
				anyShip = true
				if !g[y][x].Hit {
					return false
				}
			}
		}
	}
	return anyShip
}

// SurvivingSegments counts ship cells that have not been hit. Used by the
// match-clock tiebreak.
func (g Grid) SurvivingSegments() int {
	n := 0
	for y := range g {
		for x := range g[y] {
			if g[y][x].ShipID != "" && !g[y][x].Hit {
				n++
			}
		}
	}
	return n
}

// Quadrant is a fixed sub-rectangle of the grid targeted by the God's
// Hand override. Index layout: 0 top-left, 1 top-right, 2 bottom-left,
// 3 bottom-right. Each quadrant spans half the grid on both axes, so an
// 8x8 grid yields 4x4 blocks.
type Quadrant struct {
	X, Y, W, H int
}

func QuadrantBounds(gridSize, index int) (Quadrant, error) {
	if index < 0 || index > 3 {
		return Quadrant{}, apperr.Validation("quadrant index must be 0-3, got %d", index)
	}
	half := gridSize / 2
	q := Quadrant{W: half, H: half}
	if index%2 == 1 {
		q.X = half
	}
	if index >= 2 {
		q.Y = half
	}
	return q, nil
}
