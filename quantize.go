// seehuhn.de/go/clut - convert colour lookup tables
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package clut

import (
	"math"

	"fortio.org/safecast"
)

// maxCode returns the largest code value for the given bit depth.
func maxCode(bitDepth int) uint32 {
	return uint32(1)<<bitDepth - 1
}

// quantize converts a normalised value to an integer code value at the
// given maximum, rounding to nearest and clamping to [0, top].
func quantize(v float64, top uint32) uint32 {
	x := math.Round(v * float64(top))
	x = clamp(x, 0, float64(top))
	return safecast.MustRound[uint32](x)
}

// dequantize converts an integer code value to a normalised value.
func dequantize(code, top uint32) float64 {
	return float64(code) / float64(top)
}

// bitsFor returns the smallest bit depth n >= minBits with 2^n-1 >= v.
func bitsFor(v uint32, minBits int) int {
	n := minBits
	for n < 32 && v > maxCode(n) {
		n++
	}
	return n
}
