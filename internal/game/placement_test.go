package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

func validPlacement8() Placement {
	return Placement{
		"carrier":    {OriginX: 0, OriginY: 0, Orientation: Horizontal},
		"battleship": {OriginX: 3, OriginY: 3, Orientation: Horizontal},
		"cruiser":    {OriginX: 2, OriginY: 2, Orientation: Vertical},
		"destroyer":  {OriginX: 0, OriginY: 6, Orientation: Horizontal},
		"scout":      {OriginX: 5, OriginY: 5, Orientation: Horizontal},
	}
}

func TestBuildGrid(t *testing.T) {
	grid, err := BuildGrid(DefaultFleet(), 8, validPlacement8())
	require.NoError(t, err)
	require.Equal(t, "carrier", grid[0][4].ShipID)
	require.Equal(t, "battleship", grid[3][3].ShipID)
	require.Equal(t, "cruiser", grid[4][2].ShipID)

	totalCells := 0
	for _, sh := range DefaultFleet() {
		totalCells += sh.Size
	}
	occupied := 0
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x].ShipID != "" {
				occupied++
			}
		}
	}
	// No two ships share a cell.
	require.Equal(t, totalCells, occupied)
}

func TestBuildGridRejectsBadLayouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Placement)
		kind   apperr.Kind
	}{
		{
			name:   "missing ship",
			mutate: func(p Placement) { delete(p, "scout") },
			kind:   apperr.KindValidation,
		},
		{
			name:   "overlap",
			mutate: func(p Placement) { p["scout"] = ShipPosition{OriginX: 0, OriginY: 0, Orientation: Horizontal} },
			kind:   apperr.KindIllegalAction,
		},
		{
			name:   "out of bounds",
			mutate: func(p Placement) { p["carrier"] = ShipPosition{OriginX: 5, OriginY: 0, Orientation: Horizontal} },
			kind:   apperr.KindIllegalAction,
		},
		{
			name:   "unknown ship",
			mutate: func(p Placement) { delete(p, "scout"); p["submarine"] = ShipPosition{} },
			kind:   apperr.KindValidation,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			placement := validPlacement8()
			test.mutate(placement)
			_, err := BuildGrid(DefaultFleet(), 8, placement)
			require.True(t, apperr.Is(err, test.kind), "got %v", err)
		})
	}
}

func TestValidatePositionMovesShip(t *testing.T) {
	fleet := DefaultFleet()
	grid := NewGrid(8)
	grid, err := ValidatePosition(grid, fleet, "cruiser", ShipPosition{OriginX: 0, OriginY: 0, Orientation: Horizontal})
	require.NoError(t, err)

	// Relocating the cruiser over its own footprint is a move, not an
	// overlap.
	grid, err = ValidatePosition(grid, fleet, "cruiser", ShipPosition{OriginX: 1, OriginY: 0, Orientation: Horizontal})
	require.NoError(t, err)
	require.Equal(t, "", grid[0][0].ShipID)

	_, err = ValidatePosition(grid, fleet, "submarine", ShipPosition{})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAutoPlaceDefaultFleetOnSmallGrid(t *testing.T) {
	// 16 ship cells out of 36 must always place within the budget.
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		placement, err := AutoPlace(DefaultFleet(), 6, rng)
		require.NoError(t, err, "seed %d", seed)

		grid, err := BuildGrid(DefaultFleet(), 6, placement)
		require.NoError(t, err, "seed %d", seed)
		require.Equal(t, 16, grid.SurvivingSegments())
	}
}

func TestAutoPlaceInfeasible(t *testing.T) {
	// Nine size-4 ships need an exact 1x4 tiling of a 6x6 grid, which
	// does not exist, so the budget is always exhausted.
	fleet := make([]Ship, 0, 9)
	for i := 0; i < 9; i++ {
		fleet = append(fleet, Ship{ID: string(rune('a' + i)), Name: "Barge", Size: 4})
	}
	placement, err := AutoPlace(fleet, 6, rand.New(rand.NewSource(7)))
	require.True(t, apperr.Is(err, apperr.KindInfeasible))
	require.Nil(t, placement)
}
