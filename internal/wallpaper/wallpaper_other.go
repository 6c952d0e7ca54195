//go:build !darwin && !linux

package wallpaper

func environment() string {
	return ""
}

func set(path string) error {
	return UnsupportedError{Env: "unknown"}
}
