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

import "fmt"

// Interpolation selects the kernel used to evaluate a 3D lattice between
// grid points.  One-dimensional lattices always use linear interpolation.
type Interpolation int

// Supported interpolation kernels.
const (
	Trilinear   Interpolation = iota // weighted average of the 8 surrounding points
	Tetrahedral                      // weighted average of 4 points of the enclosing tetrahedron
)

func (m Interpolation) String() string {
	switch m {
	case Trilinear:
		return "trilinear"
	case Tetrahedral:
		return "tetrahedral"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(m))
	}
}

// ParseInterpolation converts a kernel name into an Interpolation value.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case "", "trilinear":
		return Trilinear, nil
	case "tetrahedral":
		return Tetrahedral, nil
	default:
		return 0, fmt.Errorf("clut: unknown interpolation %q", name)
	}
}

// Resample returns a lattice of the given size which approximates l.
//
// Every grid point of the new lattice is evaluated in l using the given
// interpolation kernel; the result keeps the dimension and domain of l and
// output values are not clamped.  If size equals l.Size(), l itself is
// returned.
func Resample(l *Lattice, size int, method Interpolation) (*Lattice, error) {
	if size == l.size {
		return l, nil
	}
	n := numPoints(l.dim, size)
	if size < 2 || n == 0 {
		return nil, invalidLattice("cannot resample to size %d", size)
	}

	scale := float64(size - 1)
	samples := make([]Color, n)
	if l.dim == 1 {
		for i := range samples {
			t := float64(i) / scale
			samples[i] = linearInterp1D(l.samples, Color{t, t, t})
		}
	} else {
		for i := range samples {
			r, g, b := i%size, (i/size)%size, i/(size*size)
			t := Color{float64(r) / scale, float64(g) / scale, float64(b) / scale}
			samples[i] = l.sampleNormalized(t, method)
		}
	}

	return &Lattice{
		dim:       l.dim,
		size:      size,
		domainMin: l.domainMin,
		domainMax: l.domainMax,
		samples:   samples,
	}, nil
}

// Expand converts a one-dimensional lattice into a three-dimensional one of
// the given size, by applying the three per-channel curves at every grid
// point of the cube.  Three-dimensional lattices are resampled to the given
// size with trilinear interpolation.
func Expand(l *Lattice, size int) (*Lattice, error) {
	if l.dim == 3 {
		return Resample(l, size, Trilinear)
	}
	n := numPoints(3, size)
	if size < 2 || n == 0 {
		return nil, invalidLattice("cannot expand to size %d", size)
	}

	scale := float64(size - 1)
	samples := make([]Color, n)
	for i := range samples {
		r, g, b := i%size, (i/size)%size, i/(size*size)
		t := Color{float64(r) / scale, float64(g) / scale, float64(b) / scale}
		samples[i] = linearInterp1D(l.samples, t)
	}

	return &Lattice{
		dim:       3,
		size:      size,
		domainMin: l.domainMin,
		domainMax: l.domainMax,
		samples:   samples,
	}, nil
}
