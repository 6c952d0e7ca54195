// Package tile fetches Himawari-8 tiles from the NICT service and assembles
// them into a single composite image.
package tile

import (
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/ironjr/himawaripy/internal/geo"
)

// Size is the pixel width and height of every served tile.
const Size = 550

// Box is an inclusive rectangle of tile coordinates, x1,y1 top-left to
// x2,y2 bottom-right.
type Box struct {
	X1, Y1, X2, Y2 int
}

// FullDisk returns the box covering the whole level×level grid.
func FullDisk(level int) Box {
	return Box{0, 0, level - 1, level - 1}
}

// ParseBox parses the "x1,y1,x2,y2" flag form. An empty string selects the
// full disk for the level.
func ParseBox(s string, level int) (Box, error) {
	if strings.TrimSpace(s) == "" {
		return FullDisk(level), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Box{}, &geo.ConfigError{Field: "tiles", Reason: "want four comma-separated coordinates x1,y1,x2,y2"}
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Box{}, &geo.ConfigError{Field: "tiles", Reason: "coordinate " + strconv.Quote(p) + " is not an integer"}
		}
		v[i] = n
	}
	b := Box{v[0], v[1], v[2], v[3]}
	if err := b.validate(level); err != nil {
		return Box{}, err
	}
	return b, nil
}

func (b Box) validate(level int) error {
	if b.X1 < 0 || b.Y1 < 0 || b.X2 >= level || b.Y2 >= level {
		return &geo.ConfigError{Field: "tiles", Reason: "coordinates must lie in [0, level)"}
	}
	if b.X2 < b.X1 || b.Y2 < b.Y1 {
		return &geo.ConfigError{Field: "tiles", Reason: "x2,y2 must not precede x1,y1"}
	}
	return nil
}

// Width returns the number of tile columns in the box.
func (b Box) Width() int { return b.X2 - b.X1 + 1 }

// Height returns the number of tile rows in the box.
func (b Box) Height() int { return b.Y2 - b.Y1 + 1 }

// Count returns the total number of tiles in the box.
func (b Box) Count() int { return b.Width() * b.Height() }

// Composite is an assembled grid of tiles.
type Composite struct {
	Image *image.RGBA
	Level int
	// Offset is the grid coordinate of the composite's top-left tile.
	Offset image.Point
	// Timestamp is the satellite capture time of the assembled frame.
	Timestamp time.Time
}
