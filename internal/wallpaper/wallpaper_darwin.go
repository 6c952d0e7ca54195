//go:build darwin

package wallpaper

import (
	"fmt"
	"os/exec"
	"strings"
)

func environment() string {
	return "mac"
}

func set(path string) error {
	script := fmt.Sprintf(`tell application "System Events"
	set theDesktops to a reference to every desktop
	repeat with aDesktop in theDesktops
		set picture of aDesktop to %q
	end repeat
end tell`, path)
	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wallpaper: osascript: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
