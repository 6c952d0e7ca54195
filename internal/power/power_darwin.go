//go:build darwin

package power

import (
	"bytes"
	"os/exec"
)

// discharging asks pmset for the current power source state.
func discharging() (bool, error) {
	out, err := exec.Command("pmset", "-g", "batt").Output()
	if err != nil {
		return false, err
	}
	return bytes.Contains(out, []byte("discharging")), nil
}
