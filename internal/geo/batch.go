package geo

import "fmt"

// Coords3 is a batch of 3-D points in structure-of-slices form, the
// equivalent of a (3, N) array. All three slices share one length; batch
// operations verify this instead of silently recycling shorter slices.
type Coords3 struct {
	X, Y, Z []float64
}

// NewCoords3 allocates a zeroed batch of n points.
func NewCoords3(n int) Coords3 {
	buf := make([]float64, 3*n)
	return Coords3{
		X: buf[0*n : 1*n],
		Y: buf[1*n : 2*n],
		Z: buf[2*n : 3*n],
	}
}

// Len returns the number of points in the batch.
func (c Coords3) Len() int { return len(c.X) }

// Validate reports a shape error when the three component slices disagree.
func (c Coords3) Validate() error {
	if len(c.Y) != len(c.X) || len(c.Z) != len(c.X) {
		return fmt.Errorf("geo: ragged Coords3 batch: x=%d y=%d z=%d", len(c.X), len(c.Y), len(c.Z))
	}
	return nil
}

// Pixels is a batch of 2-D image coordinates, the equivalent of a (2, N)
// array. X grows rightward, Y grows downward.
type Pixels struct {
	X, Y []float64
}

// NewPixels allocates a zeroed batch of n pixel coordinates.
func NewPixels(n int) Pixels {
	buf := make([]float64, 2*n)
	return Pixels{X: buf[:n], Y: buf[n:]}
}

// Len returns the number of coordinates in the batch.
func (p Pixels) Len() int { return len(p.X) }

// Validate reports a shape error when the component slices disagree.
func (p Pixels) Validate() error {
	if len(p.Y) != len(p.X) {
		return fmt.Errorf("geo: ragged Pixels batch: x=%d y=%d", len(p.X), len(p.Y))
	}
	return nil
}

// CoordMap is a dense destination→source map for an output image of
// Width×Height pixels, stored row-major. SrcX/SrcY give the exact source
// pixel location to sample for each destination pixel; Valid is false where
// the destination pixel has no defined source (outside the projectable
// hemisphere).
type CoordMap struct {
	Width, Height int
	SrcX, SrcY    []float32
	Valid         []bool
}

// At returns the source coordinate and validity for destination pixel (x, y).
func (m CoordMap) At(x, y int) (sx, sy float32, ok bool) {
	i := y*m.Width + x
	return m.SrcX[i], m.SrcY[i], m.Valid[i]
}

// Validate reports a shape error when the slice lengths don't match the
// declared dimensions.
func (m CoordMap) Validate() error {
	n := m.Width * m.Height
	if len(m.SrcX) != n || len(m.SrcY) != n || len(m.Valid) != n {
		return fmt.Errorf("geo: CoordMap shape %dx%d does not match slice lengths %d/%d/%d",
			m.Width, m.Height, len(m.SrcX), len(m.SrcY), len(m.Valid))
	}
	return nil
}
