package geo

import (
	"errors"
	"math"
	"testing"
)

func mustMapper(t *testing.T, level, offX, offY int, km float64, center string) *Mapper {
	t.Helper()
	m, err := NewMapper(level, offX, offY, km, center, DefaultSatelliteLonDeg)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	return m
}

func TestNewMapper_Validation(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		offX    int
		offY    int
		km      float64
		center  string
		wantErr bool
	}{
		{"defaults", 4, 0, 0, 2.0, "", false},
		{"explicit center", 20, 5, 2, 1.0, "37.5665,126.9780", false},
		{"zero scale allowed", 4, 0, 0, 0, "", false},
		{"bad level", 6, 0, 0, 2.0, "", true},
		{"negative scale", 4, 0, 0, -1.0, "", true},
		{"offset outside grid", 4, 4, 0, 2.0, "", true},
		{"negative offset", 4, 0, -1, 2.0, "", true},
		{"one center field", 4, 0, 0, 2.0, "34.5665", true},
		{"three center fields", 4, 0, 0, 2.0, "34,126,7", true},
		{"non-numeric center", 4, 0, 0, 2.0, "north,east", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(tt.level, tt.offX, tt.offY, tt.km, tt.center, DefaultSatelliteLonDeg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMapper err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("error %v is not a ConfigError", err)
				}
			}
		})
	}
}

// TestEarthCartesianRoundTrip verifies that earth → cartesian → earth is the
// identity for points on the near hemisphere, within 1e-6.
func TestEarthCartesianRoundTrip(t *testing.T) {
	m := mustMapper(t, 20, 5, 2, 4.0, "")

	// Sensor-plane positions well inside the visible disk (the corner pairs
	// must stay within the unit circle after normalization).
	offsets := []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	imsize := float64(TileSize * 20)

	px := NewPixels(len(offsets) * len(offsets))
	i := 0
	for _, fx := range offsets {
		for _, fy := range offsets {
			px.X[i] = fx*imsize - float64(5*TileSize)
			px.Y[i] = fy*imsize - float64(2*TileSize)
			i++
		}
	}

	for _, refLon := range []float64{0, m.ctrLon, degToRad(139.69)} {
		std, err := m.EarthToCartesian(px, refLon)
		if err != nil {
			t.Fatalf("EarthToCartesian: %v", err)
		}
		back, err := m.CartesianToEarth(std, refLon)
		if err != nil {
			t.Fatalf("CartesianToEarth: %v", err)
		}
		for i := 0; i < px.Len(); i++ {
			if d := math.Abs(back.X[i] - px.X[i]); d > 1e-6 {
				t.Errorf("refLon %.3f point %d: x roundtrip delta %.3e", refLon, i, d)
			}
			if d := math.Abs(back.Y[i] - px.Y[i]); d > 1e-6 {
				t.Errorf("refLon %.3f point %d: y roundtrip delta %.3e", refLon, i, d)
			}
		}
	}
}

// TestCartesianEarthRoundTrip verifies the opposite composition on
// standard-frame near-hemisphere points.
func TestCartesianEarthRoundTrip(t *testing.T) {
	m := mustMapper(t, 4, 0, 0, 2.0, "")

	// Build near-hemisphere points in the prime frame, then rotate them into
	// the standard frame with EarthToCartesian's own forward path.
	seed := NewPixels(5)
	imsize := float64(TileSize * 4)
	for i, f := range []float64{0.2, 0.35, 0.5, 0.6, 0.75} {
		seed.X[i] = f * imsize
		seed.Y[i] = (1 - f) * imsize * 0.9
	}
	std, err := m.EarthToCartesian(seed, 0)
	if err != nil {
		t.Fatalf("EarthToCartesian: %v", err)
	}

	px, err := m.CartesianToEarth(std, 0)
	if err != nil {
		t.Fatalf("CartesianToEarth: %v", err)
	}
	back, err := m.EarthToCartesian(px, 0)
	if err != nil {
		t.Fatalf("EarthToCartesian: %v", err)
	}
	for i := 0; i < std.Len(); i++ {
		for _, d := range []float64{
			math.Abs(back.X[i] - std.X[i]),
			math.Abs(back.Y[i] - std.Y[i]),
			math.Abs(back.Z[i] - std.Z[i]),
		} {
			if d > 1e-6 {
				t.Errorf("point %d: cartesian roundtrip delta %.3e", i, d)
			}
		}
	}
}

// TestMapToCartesian_UnitNorm checks that every valid inverse-projected grid
// point lies on the unit sphere within 1e-9.
func TestMapToCartesian_UnitNorm(t *testing.T) {
	m := mustMapper(t, 4, 0, 0, 8.0, "34.5665,126.9780")

	std, valid, err := m.MapToCartesian(320, 200)
	if err != nil {
		t.Fatalf("MapToCartesian: %v", err)
	}
	if std.Len() != 320*200 || len(valid) != 320*200 {
		t.Fatalf("batch size %d, valid %d, want %d", std.Len(), len(valid), 320*200)
	}

	checked := 0
	for i := 0; i < std.Len(); i++ {
		if !valid[i] {
			continue
		}
		norm := std.X[i]*std.X[i] + std.Y[i]*std.Y[i] + std.Z[i]*std.Z[i]
		if d := math.Abs(norm - 1.0); d > 1e-9 {
			t.Fatalf("point %d: |x|² = %.12f, delta %.3e", i, norm, d)
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("no valid grid points")
	}
}

// TestMapToCartesian_HemisphereMask forces grid points beyond ρ² = 4 with an
// extreme scale and checks they are masked out rather than produced as NaN.
func TestMapToCartesian_HemisphereMask(t *testing.T) {
	m := mustMapper(t, 4, 0, 0, 500.0, "0.0,140.0")

	std, valid, err := m.MapToCartesian(129, 129)
	if err != nil {
		t.Fatalf("MapToCartesian: %v", err)
	}

	invalid := 0
	for i := range valid {
		if valid[i] {
			continue
		}
		invalid++
		if math.IsNaN(std.X[i]) || math.IsNaN(std.Y[i]) || math.IsNaN(std.Z[i]) {
			t.Fatalf("masked point %d carries NaN coordinates", i)
		}
	}
	if invalid == 0 {
		t.Fatal("expected out-of-hemisphere points at 500 km/px, found none")
	}
}

// TestMapTransforms_Shape is the contract from §4: exactly width×height
// coordinate pairs, shaped as requested.
func TestMapTransforms_Shape(t *testing.T) {
	m := mustMapper(t, 4, 0, 0, 2.0, "34.5665,126.9780")

	for _, size := range [][2]int{{1920, 1080}, {640, 480}, {1, 1}, {3, 200}} {
		w, h := size[0], size[1]
		cm, err := m.MapTransforms(w, h)
		if err != nil {
			t.Fatalf("MapTransforms(%d, %d): %v", w, h, err)
		}
		if cm.Width != w || cm.Height != h {
			t.Errorf("dimensions %dx%d, want %dx%d", cm.Width, cm.Height, w, h)
		}
		if err := cm.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	}

	if _, err := m.MapTransforms(0, 1080); err == nil {
		t.Error("zero width accepted")
	}
}

// TestMapTransforms_CenterPixel is Scenario A: the destination center pixel
// must map to the source coordinate of the projection center itself.
func TestMapTransforms_CenterPixel(t *testing.T) {
	const w, h = 1920, 1080
	m := mustMapper(t, 4, 0, 0, 2.0, "34.5665,126.9780")

	cm, err := m.MapTransforms(w, h)
	if err != nil {
		t.Fatalf("MapTransforms: %v", err)
	}

	// Compute the center's source coordinate directly through the single
	// point path: the grid point at (h/2, w/2) sits exactly on the
	// reference-axis offset.
	ctrOffset := 2.0 * (1.0 - math.Sin(m.ctrLat))
	rho2 := ctrOffset * ctrOffset
	factor := math.Sqrt(1.0 - rho2*0.25)
	std := Coords3{
		X: []float64{ctrOffset * factor},
		Y: []float64{0},
		Z: []float64{1.0 - rho2*0.5},
	}
	want, err := m.CartesianToEarth(std, m.ctrLon)
	if err != nil {
		t.Fatalf("CartesianToEarth: %v", err)
	}

	sx, sy, ok := cm.At(w/2, h/2)
	if !ok {
		t.Fatal("destination center pixel is masked")
	}
	// The map stores float32, so allow float32 rounding.
	if d := math.Abs(float64(sx) - want.X[0]); d > 1e-2 {
		t.Errorf("center srcX = %v, want %v (delta %.3e)", sx, want.X[0], d)
	}
	if d := math.Abs(float64(sy) - want.Y[0]); d > 1e-2 {
		t.Errorf("center srcY = %v, want %v (delta %.3e)", sy, want.Y[0], d)
	}
}

// TestMapTransforms_ScaleHalvesExtent is Scenario B: doubling km/pixel
// approximately doubles the source ground distance covered per destination
// pixel, i.e. halves the pixels a fixed ground distance occupies.
func TestMapTransforms_ScaleHalvesExtent(t *testing.T) {
	const w, h = 256, 256
	m1 := mustMapper(t, 4, 0, 0, 2.0, "34.5665,126.9780")
	m2 := mustMapper(t, 4, 0, 0, 4.0, "34.5665,126.9780")

	cm1, err := m1.MapTransforms(w, h)
	if err != nil {
		t.Fatalf("MapTransforms: %v", err)
	}
	cm2, err := m2.MapTransforms(w, h)
	if err != nil {
		t.Fatalf("MapTransforms: %v", err)
	}

	span := func(cm CoordMap) float64 {
		x1, y1, ok1 := cm.At(w/2-20, h/2)
		x2, y2, ok2 := cm.At(w/2+20, h/2)
		if !ok1 || !ok2 {
			t.Fatal("probe pixels masked")
		}
		dx := float64(x2 - x1)
		dy := float64(y2 - y1)
		return math.Hypot(dx, dy)
	}

	ratio := span(cm2) / span(cm1)
	if ratio < 1.9 || ratio > 2.1 {
		t.Errorf("source span ratio = %.4f, want ≈ 2", ratio)
	}
}

// TestMapTransforms_CenterLatitudeShift is Scenario C: moving the center
// latitude north shifts the sampled source region monotonically along the
// source y axis.
func TestMapTransforms_CenterLatitudeShift(t *testing.T) {
	const w, h = 64, 64
	lats := []string{"20.0,126.9780", "25.0,126.9780", "30.0,126.9780", "35.0,126.9780"}

	var prev float64
	for i, center := range lats {
		m := mustMapper(t, 4, 0, 0, 2.0, center)
		cm, err := m.MapTransforms(w, h)
		if err != nil {
			t.Fatalf("MapTransforms(%s): %v", center, err)
		}
		_, sy, ok := cm.At(w/2, h/2)
		if !ok {
			t.Fatalf("center pixel masked for %s", center)
		}
		if i > 0 && float64(sy) >= prev {
			t.Errorf("center %s: srcY %.2f did not decrease from %.2f", center, sy, prev)
		}
		prev = float64(sy)
	}
}

// TestCartesianToEarth_OffsetShift checks the tile-offset bookkeeping: the
// same standard-frame point expressed against a shifted composite moves by
// exactly offset×TileSize pixels.
func TestCartesianToEarth_OffsetShift(t *testing.T) {
	full := mustMapper(t, 20, 0, 0, 4.0, "")
	crop := mustMapper(t, 20, 5, 2, 4.0, "")

	std := Coords3{X: []float64{0.6}, Y: []float64{0.3}, Z: []float64{0.5}}
	a, err := full.CartesianToEarth(std, 0)
	if err != nil {
		t.Fatalf("CartesianToEarth: %v", err)
	}
	b, err := crop.CartesianToEarth(std, 0)
	if err != nil {
		t.Fatalf("CartesianToEarth: %v", err)
	}

	if d := math.Abs((a.X[0] - b.X[0]) - 5*TileSize); d > 1e-9 {
		t.Errorf("x offset delta %.3e, want %d px shift", d, 5*TileSize)
	}
	if d := math.Abs((a.Y[0] - b.Y[0]) - 2*TileSize); d > 1e-9 {
		t.Errorf("y offset delta %.3e, want %d px shift", d, 2*TileSize)
	}
}

func TestBatchShapeChecks(t *testing.T) {
	m := mustMapper(t, 4, 0, 0, 2.0, "")

	ragged := Coords3{X: make([]float64, 4), Y: make([]float64, 3), Z: make([]float64, 4)}
	if _, err := m.CartesianToEarth(ragged, 0); err == nil {
		t.Error("ragged Coords3 accepted")
	}

	raggedPx := Pixels{X: make([]float64, 2), Y: make([]float64, 5)}
	if _, err := m.EarthToCartesian(raggedPx, 0); err == nil {
		t.Error("ragged Pixels accepted")
	}
}
