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

// The interpolation kernels below operate on samples in canonical order
// (red fastest) and take the input point in normalised coordinates [0, 1].

// gridPosition maps a normalised coordinate to a base grid index and a
// fractional offset in [0, 1].  At the upper boundary the base index is
// size-2 and the fraction is 1, so that the boundary sample gets weight 1.
func gridPosition(t float64, size int) (int, float64) {
	pos := clamp(t, 0, 1) * float64(size-1)
	i := int(pos)
	if i >= size-1 {
		i = size - 2
	}
	if i < 0 {
		i = 0
	}
	return i, clamp(pos-float64(i), 0, 1)
}

// lerp interpolates between two colours.  The form (1-f)·a + f·b returns a
// and b exactly for f = 0 and f = 1.
func lerp(a, b Color, f float64) Color {
	return Color{
		(1-f)*a[0] + f*b[0],
		(1-f)*a[1] + f*b[1],
		(1-f)*a[2] + f*b[2],
	}
}

// trilinearInterp3D performs trilinear interpolation in a 3D lattice.
// gridSize is the number of grid points per dimension.
func trilinearInterp3D(samples []Color, gridSize int, t Color) Color {
	ri, fr := gridPosition(t[0], gridSize)
	gi, fg := gridPosition(t[1], gridSize)
	bi, fb := gridPosition(t[2], gridSize)

	gStride := gridSize
	bStride := gridSize * gridSize
	base := ri + gi*gStride + bi*bStride

	// first along r
	c00 := lerp(samples[base], samples[base+1], fr)
	c10 := lerp(samples[base+gStride], samples[base+gStride+1], fr)
	c01 := lerp(samples[base+bStride], samples[base+bStride+1], fr)
	c11 := lerp(samples[base+gStride+bStride], samples[base+gStride+bStride+1], fr)

	// then along g
	c0 := lerp(c00, c10, fg)
	c1 := lerp(c01, c11, fg)

	// finally along b
	return lerp(c0, c1, fb)
}

// tetrahedralInterp3D performs tetrahedral interpolation in a 3D lattice.
// gridSize is the number of grid points per dimension.
func tetrahedralInterp3D(samples []Color, gridSize int, t Color) Color {
	ri, fr := gridPosition(t[0], gridSize)
	gi, fg := gridPosition(t[1], gridSize)
	bi, fb := gridPosition(t[2], gridSize)

	rStride := 1
	gStride := gridSize
	bStride := gridSize * gridSize

	base := ri*rStride + gi*gStride + bi*bStride

	// the 8 corners of the cube, named c<r><g><b>
	c000 := samples[base]
	c001 := samples[base+bStride]
	c010 := samples[base+gStride]
	c011 := samples[base+gStride+bStride]
	c100 := samples[base+rStride]
	c101 := samples[base+rStride+bStride]
	c110 := samples[base+rStride+gStride]
	c111 := samples[base+rStride+gStride+bStride]

	var out Color

	// select the tetrahedron based on the order of the fractional parts
	if fr > fg {
		if fg > fb {
			// fr > fg > fb
			for i := range 3 {
				out[i] = (1-fr)*c000[i] + (fr-fg)*c100[i] + (fg-fb)*c110[i] + fb*c111[i]
			}
		} else if fr > fb {
			// fr > fb >= fg
			for i := range 3 {
				out[i] = (1-fr)*c000[i] + (fr-fb)*c100[i] + (fb-fg)*c101[i] + fg*c111[i]
			}
		} else {
			// fb >= fr > fg
			for i := range 3 {
				out[i] = (1-fb)*c000[i] + (fb-fr)*c001[i] + (fr-fg)*c101[i] + fg*c111[i]
			}
		}
	} else {
		if fr > fb {
			// fg >= fr > fb
			for i := range 3 {
				out[i] = (1-fg)*c000[i] + (fg-fr)*c010[i] + (fr-fb)*c110[i] + fb*c111[i]
			}
		} else if fg > fb {
			// fg > fb >= fr
			for i := range 3 {
				out[i] = (1-fg)*c000[i] + (fg-fb)*c010[i] + (fb-fr)*c011[i] + fr*c111[i]
			}
		} else {
			// fb >= fg >= fr
			for i := range 3 {
				out[i] = (1-fb)*c000[i] + (fb-fg)*c001[i] + (fg-fr)*c011[i] + fr*c111[i]
			}
		}
	}

	return out
}

// linearInterp1D evaluates the three per-channel curves of a 1D lattice.
// Channel i of the result uses only channel i of the input and of the
// samples.
func linearInterp1D(samples []Color, t Color) Color {
	var out Color
	n := len(samples)
	for ch := range 3 {
		i, f := gridPosition(t[ch], n)
		out[ch] = (1-f)*samples[i][ch] + f*samples[i+1][ch]
	}
	return out
}
