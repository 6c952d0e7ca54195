package geo

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid mapper configuration. It is raised at
// construction, before any grid computation, and is fatal to the run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("geo: invalid %s: %s", e.Field, e.Reason)
}

// ErrOutsideHemisphere marks a map-plane point whose squared planar radius
// exceeds 4: such points lie outside the projectable hemisphere and have no
// inverse in the standard Cartesian frame. Batch operations record these in
// the CoordMap validity mask instead of returning the error.
var ErrOutsideHemisphere = errors.New("geo: point outside projectable hemisphere (ρ² > 4)")
