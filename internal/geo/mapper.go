package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Satellite and image-calibration constants for the Himawari-8 full disk.
const (
	// TileSize is the edge length of one imagery tile in pixels.
	TileSize = 550

	// SubSatelliteLatDeg is the latitude of the sub-satellite point.
	SubSatelliteLatDeg = 0.03

	// DefaultSatelliteLonDeg is the sub-satellite longitude actually used by
	// the upstream imagery pipeline. Upstream documentation says 140.7°E but
	// the value that lines up with the published tiles is 143.5°E; it is kept
	// configurable rather than silently corrected.
	DefaultSatelliteLonDeg = 143.5

	// EarthRadiusKm is the spherical earth radius.
	EarthRadiusKm = 6371.0

	// earthRadiusImageFraction is the earth radius relative to half the
	// full-disk image width, calibrated against the published imagery.
	earthRadiusImageFraction = 1.0 - 40.0/4400.0

	// Default map center when no --center is given: the Korean peninsula
	// reference point shifted 3° south so the peninsula sits above the
	// middle of a landscape image.
	defaultCenterLatDeg = 37.5665 - 3.0
	defaultCenterLonDeg = 126.9780
)

// validLevels are the tile-grid sizes the imagery service publishes.
var validLevels = map[int]bool{4: true, 8: true, 16: true, 20: true}

// Mapper converts between the four coordinate spaces of the projection
// pipeline: composite-image pixels, the prime (satellite-view) Cartesian
// frame, the standard planetocentric Cartesian frame, and the map plane of a
// Lambert azimuthal equal-area projection centered at a chosen ground point.
//
// A Mapper is immutable after construction and safe for concurrent use.
type Mapper struct {
	level            int
	offsetX, offsetY int

	kmPerPixel float64

	satLat, satLon float64 // radians
	ctrLat, ctrLon float64 // radians
}

// NewMapper builds a projection engine for a composite assembled at the given
// level with the given tile-grid offset. kmPerPixel is the output map scale;
// it must be positive here (callers treat zero as "projection disabled" and
// must not construct a Mapper). center is a "lat,lon" string in degrees, or
// empty for the default reference point. satLonDeg is the sub-satellite
// longitude in degrees; pass DefaultSatelliteLonDeg unless overriding.
func NewMapper(level, offsetX, offsetY int, kmPerPixel float64, center string, satLonDeg float64) (*Mapper, error) {
	if !validLevels[level] {
		return nil, &ConfigError{Field: "level", Reason: fmt.Sprintf("%d not one of 4, 8, 16, 20", level)}
	}
	if offsetX < 0 || offsetY < 0 || offsetX >= level || offsetY >= level {
		return nil, &ConfigError{Field: "offset", Reason: fmt.Sprintf("(%d,%d) outside tile grid 0..%d", offsetX, offsetY, level-1)}
	}
	if kmPerPixel < 0 {
		return nil, &ConfigError{Field: "scale", Reason: fmt.Sprintf("negative km/pixel %g", kmPerPixel)}
	}

	ctrLat, ctrLon, err := ParseCenter(center)
	if err != nil {
		return nil, err
	}

	return &Mapper{
		level:      level,
		offsetX:    offsetX,
		offsetY:    offsetY,
		kmPerPixel: kmPerPixel,
		satLat:     degToRad(SubSatelliteLatDeg),
		satLon:     degToRad(satLonDeg),
		ctrLat:     ctrLat,
		ctrLon:     ctrLon,
	}, nil
}

// ParseCenter parses a "lat,lon" string in degrees into radians. An empty
// string yields the default reference point. The string must contain exactly
// two numeric fields.
func ParseCenter(center string) (lat, lon float64, err error) {
	if strings.TrimSpace(center) == "" {
		return degToRad(defaultCenterLatDeg), degToRad(defaultCenterLonDeg), nil
	}
	fields := strings.Split(center, ",")
	if len(fields) != 2 {
		return 0, 0, &ConfigError{Field: "center", Reason: fmt.Sprintf("%q: want exactly two comma-separated fields", center)}
	}
	vals := make([]float64, 2)
	for i, f := range fields {
		v, perr := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if perr != nil {
			return 0, 0, &ConfigError{Field: "center", Reason: fmt.Sprintf("%q: field %d is not numeric", center, i+1)}
		}
		vals[i] = v
	}
	return degToRad(vals[0]), degToRad(vals[1]), nil
}

// Center returns the projection center in radians.
func (m *Mapper) Center() (lat, lon float64) { return m.ctrLat, m.ctrLon }

// fullDiskSize is the full-disk image edge length in pixels at this level.
func (m *Mapper) fullDiskSize() float64 { return float64(TileSize * m.level) }

// rotation returns the sines and cosines of the two composed rotation angles
// between the standard and prime frames: the polar angle π/2 − satLat and the
// azimuth satLon − refLon. The resulting 3×3 matrix is orthonormal, so its
// transpose is its inverse.
func (m *Mapper) rotation(refLon float64) (sinTh, cosTh, sinPh, cosPh float64) {
	theta := math.Pi*0.5 - m.satLat
	phi := m.satLon - refLon
	return math.Sin(theta), math.Cos(theta), math.Sin(phi), math.Cos(phi)
}

// EarthToCartesian converts composite-image pixel coordinates to unit vectors
// in the standard Cartesian frame. The prime-frame x component is recovered
// via the unit-sphere constraint with the positive root, which is correct
// because the satellite observes only the near hemisphere.
func (m *Mapper) EarthToCartesian(px Pixels, refLon float64) (Coords3, error) {
	if err := px.Validate(); err != nil {
		return Coords3{}, err
	}
	n := px.Len()
	imsize := m.fullDiskSize()
	xoff := float64(m.offsetX * TileSize)
	yoff := float64(m.offsetY * TileSize)

	sinTh, cosTh, sinPh, cosPh := m.rotation(refLon)

	out := NewCoords3(n)
	for i := 0; i < n; i++ {
		xEarth := px.X[i] + xoff
		yEarth := px.Y[i] + yoff

		// Normalized prime-frame components on the sensor plane.
		yP := (2.0*xEarth/imsize - 1.0) / earthRadiusImageFraction
		zP := (-2.0*yEarth/imsize + 1.0) / earthRadiusImageFraction
		xP := math.Sqrt(1.0 - yP*yP - zP*zP)

		// prime → standard: the transpose of the standard → prime matrix.
		out.X[i] = sinTh*cosPh*xP - sinPh*yP - cosTh*cosPh*zP
		out.Y[i] = sinTh*sinPh*xP + cosPh*yP - cosTh*sinPh*zP
		out.Z[i] = cosTh*xP + sinTh*zP
	}
	return out, nil
}

// CartesianToEarth converts standard-frame unit vectors to composite-image
// pixel coordinates: it rotates into the prime frame, projects onto the
// satellite sensor's normalized image plane, and shifts by the tile-grid
// offset so the result is relative to the assembled composite rather than
// the full disk.
func (m *Mapper) CartesianToEarth(std Coords3, refLon float64) (Pixels, error) {
	if err := std.Validate(); err != nil {
		return Pixels{}, err
	}
	n := std.Len()
	imsize := m.fullDiskSize()
	xoff := float64(m.offsetX * TileSize)
	yoff := float64(m.offsetY * TileSize)

	sinTh, cosTh, sinPh, cosPh := m.rotation(refLon)

	out := NewPixels(n)
	for i := 0; i < n; i++ {
		x, y, z := std.X[i], std.Y[i], std.Z[i]

		// standard → prime rotation.
		yP := -sinPh*x + cosPh*y
		zP := -cosTh*cosPh*x - cosTh*sinPh*y + sinTh*z

		out.X[i] = (yP*earthRadiusImageFraction+1.0)*imsize*0.5 - xoff
		out.Y[i] = (-zP*earthRadiusImageFraction+1.0)*imsize*0.5 - yoff
	}
	return out, nil
}

// MapToCartesian builds the regular height×width map-plane grid around the
// projection center and inverts the Lambert azimuthal equal-area projection
// for every grid point, producing standard-frame unit vectors. Grid spacing
// is kmPerPixel scaled to earth radii and divided by 2·cos(ctrLat) to keep
// ground distances near the center approximately correct at any latitude.
// The grid is shifted along its reference axis by 2·(1 − sin(ctrLat)), which
// places the projection center at image index (width/2, height/2).
//
// Points with squared planar radius above 4 have no inverse; they are
// reported false in the returned validity mask and carry a placeholder
// coordinate. The mask is row-major, height×width.
func (m *Mapper) MapToCartesian(width, height int) (Coords3, []bool, error) {
	if width <= 0 || height <= 0 {
		return Coords3{}, nil, &ConfigError{Field: "size", Reason: fmt.Sprintf("%dx%d not positive", width, height)}
	}

	scale := m.kmPerPixel / EarthRadiusKm
	scale /= 2.0 * math.Cos(m.ctrLat)
	ctrOffset := 2.0 * (1.0 - math.Sin(m.ctrLat))

	n := width * height
	out := NewCoords3(n)
	valid := make([]bool, n)

	for row := 0; row < height; row++ {
		// The map rectangle lies along the grid's reference axis; the row
		// coordinate carries the center offset.
		xm := (float64(row)-float64(height)*0.5)*scale + ctrOffset
		base := row * width
		for col := 0; col < width; col++ {
			ym := (float64(col) - float64(width)*0.5) * scale

			rho2 := xm*xm + ym*ym
			if rho2 > 4.0 {
				// No inverse; park the point at the projection pole.
				out.Z[base+col] = 1.0
				continue
			}

			factor := math.Sqrt(1.0 - rho2*0.25)
			i := base + col
			out.X[i] = xm * factor
			out.Y[i] = ym * factor
			out.Z[i] = 1.0 - rho2*0.5
			valid[i] = true
		}
	}
	return out, valid, nil
}

// MapTransforms composes MapToCartesian and CartesianToEarth (with the
// projection center's longitude as reference) into a dense inverse map: for
// every destination pixel of a width×height output, the exact source pixel
// location in the composite to sample. Inverse mapping guarantees every
// output pixel exactly one sample with no gaps.
func (m *Mapper) MapTransforms(width, height int) (CoordMap, error) {
	std, valid, err := m.MapToCartesian(width, height)
	if err != nil {
		return CoordMap{}, err
	}
	px, err := m.CartesianToEarth(std, m.ctrLon)
	if err != nil {
		return CoordMap{}, err
	}

	n := width * height
	cm := CoordMap{
		Width:  width,
		Height: height,
		SrcX:   make([]float32, n),
		SrcY:   make([]float32, n),
		Valid:  valid,
	}
	for i := 0; i < n; i++ {
		cm.SrcX[i] = float32(px.X[i])
		cm.SrcY[i] = float32(px.Y[i])
	}
	return cm, nil
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
