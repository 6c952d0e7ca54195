// Package remap resamples an assembled composite through a destination→source
// coordinate map, producing the final projected image.
package remap

import (
	"fmt"
	"image"

	"github.com/ironjr/himawaripy/internal/geo"
)

// EdgePolicy controls what happens when a computed source coordinate falls
// outside the composite image — for example when the fetched tile window is
// smaller than the area the projection needs.
type EdgePolicy int

const (
	// EdgeTransparent leaves such destination pixels fully transparent.
	EdgeTransparent EdgePolicy = iota
	// EdgeClamp clamps the sample position to the composite rim.
	EdgeClamp
)

// ParseEdgePolicy parses the CLI spelling of an edge policy.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch s {
	case "", "transparent":
		return EdgeTransparent, nil
	case "clamp":
		return EdgeClamp, nil
	default:
		return 0, fmt.Errorf("remap: unknown edge policy %q (want transparent or clamp)", s)
	}
}

// Render projects src through the mapper into a width×height image: it asks
// the mapper for the dense inverse map and samples src with bicubic
// interpolation at every mapped coordinate.
func Render(src *image.RGBA, m *geo.Mapper, width, height int, policy EdgePolicy) (*image.RGBA, error) {
	cm, err := m.MapTransforms(width, height)
	if err != nil {
		return nil, err
	}
	return Remap(src, cm, policy)
}

// Remap samples src at every coordinate of the map using Catmull-Rom bicubic
// interpolation over a 4×4 neighborhood. Destination pixels whose map entry
// is masked invalid are transparent under either policy; out-of-bounds source
// coordinates follow the edge policy.
func Remap(src *image.RGBA, cm geo.CoordMap, policy EdgePolicy) (*image.RGBA, error) {
	if err := cm.Validate(); err != nil {
		return nil, err
	}

	srcW := src.Rect.Dx()
	srcH := src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, cm.Width, cm.Height))

	for dy := 0; dy < cm.Height; dy++ {
		rowOff := dy * dst.Stride
		mapOff := dy * cm.Width
		for dx := 0; dx < cm.Width; dx++ {
			i := mapOff + dx
			if !cm.Valid[i] {
				continue
			}

			fx := float64(cm.SrcX[i])
			fy := float64(cm.SrcY[i])

			if fx < 0 || fx >= float64(srcW) || fy < 0 || fy >= float64(srcH) {
				if policy == EdgeTransparent {
					continue
				}
				fx = clampFloat(fx, 0, float64(srcW-1))
				fy = clampFloat(fy, 0, float64(srcH-1))
			}

			r, g, b, a := bicubicSample(src, fx, fy, srcW, srcH)
			off := rowOff + dx*4
			dst.Pix[off+0] = r
			dst.Pix[off+1] = g
			dst.Pix[off+2] = b
			dst.Pix[off+3] = a
		}
	}
	return dst, nil
}

// bicubicSample performs Catmull-Rom interpolation over the 4×4 neighborhood
// around (fx, fy), with neighbor coordinates clamped to the image. Pixels
// with alpha == 0 are excluded from RGB accumulation so missing data doesn't
// bleed dark colors into the result; alpha itself uses the full kernel
// weights so data edges fade smoothly.
func bicubicSample(src *image.RGBA, fx, fy float64, srcW, srcH int) (r, g, b, a uint8) {
	const n = 4

	ix0 := floorInt(fx) - 1
	iy0 := floorInt(fy) - 1

	var wxArr, wyArr [n]float64
	var pxArr, pyArr [n]int
	for k := 0; k < n; k++ {
		pxArr[k] = clamp(ix0+k, 0, srcW-1)
		pyArr[k] = clamp(iy0+k, 0, srcH-1)
		wxArr[k] = bicubicLUT(fx - float64(ix0+k))
		wyArr[k] = bicubicLUT(fy - float64(iy0+k))
	}

	pix := src.Pix
	stride := src.Stride

	var rSum, gSum, bSum, aSum, wTotal, wRGB float64
	for ky := 0; ky < n; ky++ {
		wyVal := wyArr[ky]
		if wyVal == 0 {
			continue
		}
		rowOff := pyArr[ky] * stride

		for kx := 0; kx < n; kx++ {
			wt := wxArr[kx] * wyVal
			if wt == 0 {
				continue
			}
			off := rowOff + pxArr[kx]*4
			alpha := pix[off+3]
			aSum += float64(alpha) * wt
			wTotal += wt
			if alpha > 0 {
				rSum += float64(pix[off+0]) * wt
				gSum += float64(pix[off+1]) * wt
				bSum += float64(pix[off+2]) * wt
				wRGB += wt
			}
		}
	}

	if wRGB == 0 {
		return 0, 0, 0, 0
	}
	return clampByte(rSum / wRGB), clampByte(gSum / wRGB), clampByte(bSum / wRGB), clampByte(aSum / wTotal)
}

func floorInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampByte rounds a float64 to the nearest uint8, clamping to [0, 255].
func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
