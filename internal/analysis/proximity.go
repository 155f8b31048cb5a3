package analysis

import (
	"github.com/dhconnelly/rtreego"

	"github.com/KI7MT/ki7mt-adif-lab/internal/geo"
)

// R-tree parameters
const (
	dimensions  = 3 // unit-sphere vectors
	minChildren = 25
	maxChildren = 50
	tolerance   = 1e-9
)

// Proximity is the logged contact closest to one symmetric point of the station.
type Proximity struct {
	Name       string
	Target     geo.Point
	Call       string
	Grid       string
	DistanceKm float64 // from Target to the contact's square center
	Found      bool
}

type spatialContact struct {
	call  string
	grid  string
	point geo.Point
	rect  *rtreego.Rect
}

func (s *spatialContact) Bounds() *rtreego.Rect {
	return s.rect
}

// ContactIndex is an R-tree over contact squares on the unit sphere.
// Chord length is monotonic in great-circle distance, so the Euclidean
// nearest neighbour is also the great-circle nearest neighbour.
type ContactIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewContactIndex indexes every contact with CALL and a grid at square precision.
func NewContactIndex(contacts []Contact) *ContactIndex {
	idx := &ContactIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for i := range contacts {
		c := &contacts[i]
		if !c.HasCall {
			continue
		}
		p, ok := c.SquarePoint()
		if !ok {
			continue
		}
		v := geo.UnitVector(p)
		idx.tree.Insert(&spatialContact{
			call:  c.Call,
			grid:  c.Grid[:4],
			point: p,
			rect:  rtreego.Point{v[0], v[1], v[2]}.ToRect(tolerance),
		})
		idx.size++
	}
	return idx
}

// Size returns the number of indexed contacts.
func (x *ContactIndex) Size() int {
	return x.size
}

// Nearest returns the indexed contact closest to target.
func (x *ContactIndex) Nearest(target geo.Point) (Proximity, bool) {
	if x.size == 0 {
		return Proximity{Target: target}, false
	}
	v := geo.UnitVector(target)
	hit := x.tree.NearestNeighbor(rtreego.Point{v[0], v[1], v[2]})
	sc, ok := hit.(*spatialContact)
	if !ok || sc == nil {
		return Proximity{Target: target}, false
	}
	return Proximity{
		Target:     target,
		Call:       sc.call,
		Grid:       sc.grid,
		DistanceKm: geo.DistanceKm(sc.point, target),
		Found:      true,
	}, true
}

// Symmetric point names
const (
	PointAntipode  = "Antipode"
	PointAntecoic  = "Antecoic"
	PointPeriecoic = "Periecoic"
)

// AntipodeProximity finds the closest contact to the station's antipode,
// antecoic and periecoic points.
func AntipodeProximity(station geo.Point, contacts []Contact) []Proximity {
	idx := NewContactIndex(contacts)
	targets := []struct {
		name string
		p    geo.Point
	}{
		{PointAntipode, geo.Antipode(station)},
		{PointAntecoic, geo.Antecoic(station)},
		{PointPeriecoic, geo.Periecoic(station)},
	}

	out := make([]Proximity, 0, len(targets))
	for _, t := range targets {
		res, _ := idx.Nearest(t.p)
		res.Name = t.name
		out = append(out, res)
	}
	return out
}
