// Package wallpaper sets the desktop background across the desktop
// environments the original tool supports.
package wallpaper

import "fmt"

// UnsupportedError reports a desktop environment without a known setter.
type UnsupportedError struct {
	Env string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("wallpaper: desktop environment %q is not supported", e.Env)
}

// Set makes the file at path the desktop background.
func Set(path string) error {
	return set(path)
}

// Environment names the detected desktop environment, or "" when none is
// recognized.
func Environment() string {
	return environment()
}
