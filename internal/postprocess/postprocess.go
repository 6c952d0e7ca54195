// Package postprocess reshapes the assembled composite for a screen:
// aspect-ratio cropping and high-quality rescaling.
package postprocess

import (
	"image"
	"image/draw"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/ironjr/himawaripy/internal/geo"
)

// ParseRatio parses the "W:H" flag form into a width/height quotient.
// An empty string returns 0, meaning no crop.
func ParseRatio(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &geo.ConfigError{Field: "screen-ratio", Reason: "want two colon-separated numbers W:H"}
	}
	var v [2]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, &geo.ConfigError{Field: "screen-ratio", Reason: "component " + strconv.Quote(p) + " is not a number"}
		}
		if f <= 0 {
			return 0, &geo.ConfigError{Field: "screen-ratio", Reason: "components must be positive"}
		}
		v[i] = f
	}
	return v[0] / v[1], nil
}

// CropRatio center-crops img to the given width/height quotient, trimming
// either the sides or the top and bottom. A ratio of 0 returns img unchanged.
func CropRatio(img *image.RGBA, ratio float64) *image.RGBA {
	if ratio == 0 {
		return img
	}
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	aspect := float64(w) / float64(h)

	var rect image.Rectangle
	switch {
	case aspect > ratio:
		// Wider than the screen: crop the sides.
		width := ratio * float64(h)
		left := int((float64(w) - width) * 0.5)
		rect = image.Rect(left, 0, left+int(width), h)
	case aspect < ratio:
		// Taller than the screen: crop the top and the bottom.
		height := float64(w) / ratio
		top := int((float64(h) - height) * 0.5)
		rect = image.Rect(0, top, w, top+int(height))
	default:
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Rect, img, rect.Min.Add(img.Rect.Min), draw.Src)
	return dst
}

// Scale resamples img to width x height with the Catmull-Rom kernel.
// Matching dimensions return img unchanged.
func Scale(img *image.RGBA, width, height int) *image.RGBA {
	if img.Rect.Dx() == width && img.Rect.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, xdraw.Src, nil)
	return dst
}
