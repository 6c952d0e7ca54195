//go:build linux

package wallpaper

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// environment inspects the session variables the display managers set.
// XDG_CURRENT_DESKTOP wins; DESKTOP_SESSION and the legacy GNOME/KDE
// markers cover older setups.
func environment() string {
	for _, v := range []string{"XDG_CURRENT_DESKTOP", "DESKTOP_SESSION"} {
		s := strings.ToLower(os.Getenv(v))
		// Values like "ubuntu:GNOME" carry the vendor prefix first.
		for _, part := range strings.Split(s, ":") {
			switch part {
			case "gnome", "gnome-xorg", "gnome-wayland", "unity", "ubuntu":
				return "gnome"
			case "cinnamon", "x-cinnamon":
				return "cinnamon"
			case "mate":
				return "mate"
			case "xfce", "xfce4":
				return "xfce4"
			case "kde", "plasma", "plasmawayland":
				return "kde"
			case "lxde", "lxqt":
				return "lxde"
			case "sway":
				return "sway"
			case "i3":
				return "i3"
			}
		}
	}
	if os.Getenv("GNOME_DESKTOP_SESSION_ID") != "" {
		return "gnome"
	}
	if os.Getenv("KDE_FULL_SESSION") == "true" {
		return "kde"
	}
	return ""
}

func set(path string) error {
	env := environment()
	uri := "file://" + path

	var cmd *exec.Cmd
	switch env {
	case "gnome":
		cmd = exec.Command("gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri)
	case "cinnamon":
		cmd = exec.Command("gsettings", "set", "org.cinnamon.desktop.background", "picture-uri", uri)
	case "mate":
		cmd = exec.Command("gsettings", "set", "org.mate.background", "picture-filename", path)
	case "xfce4":
		cmd = exec.Command("xfconf-query", "-c", "xfce4-desktop",
			"-p", "/backdrop/screen0/monitor0/workspace0/last-image", "-s", path)
	case "kde":
		script := fmt.Sprintf(`var allDesktops = desktops();
for (i = 0; i < allDesktops.length; i++) {
	d = allDesktops[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
	d.writeConfig("Image", %q);
}`, uri)
		cmd = exec.Command("qdbus", "org.kde.plasmashell", "/PlasmaShell",
			"org.kde.PlasmaShell.evaluateScript", script)
	case "lxde":
		cmd = exec.Command("pcmanfm", "--set-wallpaper", path)
	case "sway":
		cmd = exec.Command("swaymsg", "output", "*", "bg", path, "fill")
	case "i3":
		cmd = exec.Command("feh", "--bg-max", path)
	default:
		return UnsupportedError{Env: env}
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wallpaper: %s: %w (%s)", cmd.Path, err, strings.TrimSpace(string(out)))
	}
	return nil
}
