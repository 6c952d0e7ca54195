// Package power reports whether the machine is running on battery, so the
// refresh can be skipped when asked to save power.
package power

// Discharging reports whether the machine is currently draining a battery.
func Discharging() (bool, error) {
	return discharging()
}
