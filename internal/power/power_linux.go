//go:build linux

package power

import (
	"os"
	"path/filepath"
	"strings"
)

// discharging reads the first battery's status from sysfs.
func discharging() (bool, error) {
	matches, err := filepath.Glob("/sys/class/power_supply/BAT*/status")
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		// Desktop machine: nothing to drain.
		return false, nil
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(data)) == "Discharging", nil
}
