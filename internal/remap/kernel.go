package remap

// bicubic computes the Catmull-Rom (a = -0.5) bicubic kernel value:
//
//	W(x) = 1.5|x|³ - 2.5|x|² + 1         for |x| ≤ 1
//	W(x) = -0.5|x|³ + 2.5|x|² - 4|x| + 2 for 1 < |x| ≤ 2
//	W(x) = 0                                for |x| > 2
func bicubic(x float64) float64 {
	if x < 0 {
		x = -x
	}
	if x >= 2 {
		return 0
	}
	x2 := x * x
	x3 := x2 * x
	if x <= 1 {
		return 1.5*x3 - 2.5*x2 + 1
	}
	return -0.5*x3 + 2.5*x2 - 4*x + 2
}

// bicubicLUTSize is the number of entries in each half of the lookup table.
// 1024 entries over [0, 2] gives a step of ~0.00195.
const bicubicLUTSize = 1024

// bicubicTable stores precomputed Catmull-Rom kernel values for x in [0, 2).
// The kernel is symmetric so we only store the positive half.
var bicubicTable [bicubicLUTSize]float64

func init() {
	for i := 0; i < bicubicLUTSize; i++ {
		x := float64(i) * 2.0 / float64(bicubicLUTSize)
		bicubicTable[i] = bicubic(x)
	}
}

// bicubicLUT evaluates the Catmull-Rom bicubic kernel via table lookup with
// linear interpolation. Eliminates repeated polynomial evaluation in the
// inner resampling loop, which runs once per output pixel per kernel tap.
func bicubicLUT(x float64) float64 {
	if x < 0 {
		x = -x
	}
	if x >= 2 {
		return 0
	}
	pos := x * (bicubicLUTSize / 2.0)
	idx := int(pos)
	if idx >= bicubicLUTSize-1 {
		return bicubicTable[bicubicLUTSize-1]
	}
	frac := pos - float64(idx)
	return bicubicTable[idx]*(1-frac) + bicubicTable[idx+1]*frac
}
