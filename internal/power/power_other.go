//go:build !darwin && !linux

package power

import "fmt"

// discharging is unsupported on this platform.
func discharging() (bool, error) {
	return false, fmt.Errorf("battery state detection works only on linux or darwin")
}
