package domain

import (
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"
)

// AggregateHeatmap buckets place points into H3 hexagonal cells at the
// given resolution and aggregates each cell's members: mean intensity
// (rounded to nearest), max intensity, member count, and the dominant
// nature under the same weighted vote the nature classifier uses. The
// hashing is deterministic, so identical coordinates always land in the
// same cell and output is sorted by cell id. Empty input yields no cells.
func AggregateHeatmap(points []PlacePoint, resolution int) []HeatmapCell {
	type bucket struct {
		sum          int
		maxIntensity int
		count        int
		natures      map[Nature]int
	}

	buckets := make(map[h3.Cell]*bucket)
	for _, p := range points {
		cell := h3.LatLngToCell(h3.NewLatLng(p.Geo.Lat, p.Geo.Lng), resolution)
		b, ok := buckets[cell]
		if !ok {
			b = &bucket{natures: make(map[Nature]int)}
			buckets[cell] = b
		}
		b.sum += p.Intensity
		if p.Intensity > b.maxIntensity {
			b.maxIntensity = p.Intensity
		}
		b.count++
		// Mixed members carry no directional signal and cast no vote.
		if p.Nature != NatureMixed {
			b.natures[p.Nature]++
		}
	}

	cells := make([]HeatmapCell, 0, len(buckets))
	for cell, b := range buckets {
		boundary := cellBoundary(cell)
		cells = append(cells, HeatmapCell{
			CellID:         cell.String(),
			Resolution:     resolution,
			Center:         centroid(boundary),
			Boundary:       boundary,
			AvgIntensity:   int(math.Round(float64(b.sum) / float64(b.count))),
			MaxIntensity:   b.maxIntensity,
			PlaceCount:     b.count,
			DominantNature: dominantNature(b.natures),
		})
	}

	sort.Slice(cells, func(i, j int) bool { return cells[i].CellID < cells[j].CellID })
	return cells
}

// cellBoundary converts the hexagon's vertex loop to Geo points. Twelve of
// the H3 base cells are pentagons, so callers must not assume six vertices.
func cellBoundary(cell h3.Cell) []Geo {
	verts := cell.Boundary()
	boundary := make([]Geo, len(verts))
	for i, v := range verts {
		boundary[i] = Geo{Lat: v.Lat, Lng: v.Lng}
	}
	return boundary
}

// centroid is the arithmetic mean of the boundary vertices. Cells are far
// too small for spherical effects to matter at map scale.
func centroid(boundary []Geo) Geo {
	if len(boundary) == 0 {
		return Geo{}
	}
	var lat, lng float64
	for _, v := range boundary {
		lat += v.Lat
		lng += v.Lng
	}
	n := float64(len(boundary))
	return Geo{Lat: lat / n, Lng: lng / n}
}
