package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heatmapTestResolution = 8

func TestAggregateHeatmap(t *testing.T) {
	downtown := Geo{Lat: 40.7128, Lng: -74.0060}
	farAway := Geo{Lat: 34.0522, Lng: -118.2437}

	t.Run("empty input yields no cells", func(t *testing.T) {
		assert.Empty(t, AggregateHeatmap(nil, heatmapTestResolution))
	})

	t.Run("co-located places share a cell", func(t *testing.T) {
		points := []PlacePoint{
			{PlaceID: "a", Geo: downtown, Intensity: 80, Nature: NatureDensification},
			{PlaceID: "b", Geo: downtown, Intensity: 51, Nature: NatureDensification},
			{PlaceID: "c", Geo: farAway, Intensity: 20, Nature: NatureRenovation},
		}

		cells := AggregateHeatmap(points, heatmapTestResolution)
		require.Len(t, cells, 2)

		var shared, lone *HeatmapCell
		for i := range cells {
			switch cells[i].PlaceCount {
			case 2:
				shared = &cells[i]
			case 1:
				lone = &cells[i]
			}
		}
		require.NotNil(t, shared)
		require.NotNil(t, lone)

		// (80+51)/2 = 65.5 rounds to 66.
		assert.Equal(t, 66, shared.AvgIntensity)
		assert.Equal(t, 80, shared.MaxIntensity)
		assert.Equal(t, NatureDensification, shared.DominantNature)

		assert.Equal(t, 20, lone.AvgIntensity)
		assert.Equal(t, 20, lone.MaxIntensity)
		assert.Equal(t, NatureRenovation, lone.DominantNature)
	})

	t.Run("dominant nature uses the classifier vote", func(t *testing.T) {
		points := []PlacePoint{
			// densification 1×5 vs demolition 1×4: ambiguous.
			{PlaceID: "a", Geo: downtown, Intensity: 50, Nature: NatureDensification},
			{PlaceID: "b", Geo: downtown, Intensity: 40, Nature: NatureDemolition},
		}
		cells := AggregateHeatmap(points, heatmapTestResolution)
		require.Len(t, cells, 1)
		assert.Equal(t, NatureMixed, cells[0].DominantNature)
	})

	t.Run("mixed members cast no vote", func(t *testing.T) {
		points := []PlacePoint{
			{PlaceID: "a", Geo: downtown, Intensity: 10, Nature: NatureMixed},
			{PlaceID: "b", Geo: downtown, Intensity: 10, Nature: NatureMixed},
			{PlaceID: "c", Geo: downtown, Intensity: 90, Nature: NatureInfrastructure},
		}
		cells := AggregateHeatmap(points, heatmapTestResolution)
		require.Len(t, cells, 1)
		assert.Equal(t, NatureInfrastructure, cells[0].DominantNature)
	})

	t.Run("cell geometry is populated", func(t *testing.T) {
		cells := AggregateHeatmap([]PlacePoint{
			{PlaceID: "a", Geo: downtown, Intensity: 42, Nature: NatureRenovation},
		}, heatmapTestResolution)
		require.Len(t, cells, 1)

		cell := cells[0]
		assert.NotEmpty(t, cell.CellID)
		assert.Equal(t, heatmapTestResolution, cell.Resolution)
		// Hexagon vertices; a handful of base cells are pentagons.
		assert.GreaterOrEqual(t, len(cell.Boundary), 5)
		// Centroid lands near the member that defined the cell.
		assert.InDelta(t, downtown.Lat, cell.Center.Lat, 0.05)
		assert.InDelta(t, downtown.Lng, cell.Center.Lng, 0.05)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		points := []PlacePoint{
			{PlaceID: "a", Geo: downtown, Intensity: 80, Nature: NatureDensification},
			{PlaceID: "b", Geo: farAway, Intensity: 20, Nature: NatureRenovation},
			{PlaceID: "c", Geo: Geo{Lat: 41.8781, Lng: -87.6298}, Intensity: 55, Nature: NatureInfrastructure},
		}
		first := AggregateHeatmap(points, heatmapTestResolution)
		second := AggregateHeatmap(points, heatmapTestResolution)
		assert.Equal(t, first, second)
	})

	t.Run("finer resolution separates neighbors", func(t *testing.T) {
		near := Geo{Lat: 40.7128, Lng: -74.0060}
		alsoNear := Geo{Lat: 40.7308, Lng: -73.9976} // ~2 km away
		points := []PlacePoint{
			{PlaceID: "a", Geo: near, Intensity: 50, Nature: NatureRenovation},
			{PlaceID: "b", Geo: alsoNear, Intensity: 50, Nature: NatureRenovation},
		}

		// ~2 km apart: separate hexagons at street scale, and never more
		// cells at a coarser resolution than a finer one.
		fine := AggregateHeatmap(points, 10)
		coarse := AggregateHeatmap(points, 5)
		assert.Len(t, fine, 2)
		assert.LessOrEqual(t, len(coarse), len(fine))
	})
}
