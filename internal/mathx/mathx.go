package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MapU32 maps x in [inMin,inMax] to [outMin,outMax] with 64-bit intermediates.
// Inputs outside the range saturate to the nearest output bound.
func MapU32(x, inMin, inMax, outMin, outMax uint32) uint32 {
	if inMax <= inMin {
		return outMin
	}
	if x <= inMin {
		return outMin
	}
	if x >= inMax {
		return outMax
	}
	if outMax < outMin {
		// descending output range
		span := uint64(outMin - outMax)
		return outMin - uint32(uint64(x-inMin)*span/uint64(inMax-inMin))
	}
	num := uint64(x-inMin) * uint64(outMax-outMin)
	return outMin + uint32(num/uint64(inMax-inMin))
}

// ScaleU32 returns x*num/den with 64-bit intermediates, saturating at MaxUint32.
// den==0 yields 0.
func ScaleU32(x, num, den uint32) uint32 {
	if den == 0 {
		return 0
	}
	r := uint64(x) * uint64(num) / uint64(den)
	if r > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(r)
}
