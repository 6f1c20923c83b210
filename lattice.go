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

// Package clut converts colour lookup tables between file formats.
//
// A colour lookup table (LUT) maps input colours to output colours by
// tabulating the output at the points of a regular grid.  This package
// reads and writes Hald CLUT images (PNG or TIFF), 3DL meshes, Adobe Cube
// files and ICC DeviceLink profiles.  All formats are decoded into a
// [Lattice], which can be resampled to a different mesh size and encoded
// into any of the other formats.  The package transcribes numbers only; it
// does not interpret gamma, log or linear encodings.
//
// # Converting Files
//
// Use [NewConverter] to set up a conversion between two formats:
//
//	c, err := clut.NewConverter(clut.FormatHald, clut.Format3DL, nil)
//	if err != nil {
//	    // handle error
//	}
//	res, err := c.ConvertFile("film.png", "film.3dl")
//
// # Working with Lattices
//
// The codecs can also be used directly:
//
//	l, meta, err := clut.DecodeCube(r)
//	if err != nil {
//	    // handle error
//	}
//	l33, err := clut.Resample(l, 33, clut.Trilinear)
//	err = clut.Encode3DL(w, l33, &clut.ThreeDLOptions{BitDepth: 10})
package clut

import (
	"fmt"
	"math"
)

// Color is an output colour triple.  Components are normalised so that the
// nominal output range is [0, 1], but values outside this range are allowed.
type Color [3]float64

// Lattice is the canonical in-memory representation of a lookup table.
//
// A three-dimensional lattice of size N holds N³ output colours, one for each
// point of a regular grid over the input domain.  A one-dimensional lattice
// holds N colours; component i of sample k is the output of channel i at the
// k-th grid point.  Samples are stored with the first (red) axis varying
// fastest.
//
// A Lattice is immutable and safe for concurrent use.
type Lattice struct {
	dim       int
	size      int
	domainMin Color
	domainMax Color
	samples   []Color
}

// DefaultDomainMin and DefaultDomainMax give the input domain used by
// formats which do not store one.
var (
	DefaultDomainMin = Color{0, 0, 0}
	DefaultDomainMax = Color{1, 1, 1}
)

// maxSamples limits the number of lattice points.
const maxSamples = 1 << 26

// New creates a lattice of the given dimension (1 or 3) and size.
// Samples must be given in canonical order, red fastest.
// The function takes over ownership of the samples slice.
func New(dim, size int, domainMin, domainMax Color, samples []Color) (*Lattice, error) {
	if dim != 1 && dim != 3 {
		return nil, invalidLattice("dimension %d is not 1 or 3", dim)
	}
	if size < 2 {
		return nil, invalidLattice("size %d is less than 2", size)
	}
	n := numPoints(dim, size)
	if n == 0 {
		return nil, invalidLattice("size %d is too large", size)
	}
	if len(samples) != n {
		return nil, invalidLattice("%d samples for a %dD lattice of size %d, need %d",
			len(samples), dim, size, n)
	}
	for ch := range 3 {
		lo, hi := domainMin[ch], domainMax[ch]
		if !isFinite(lo) || !isFinite(hi) || lo >= hi {
			return nil, invalidLattice("empty domain [%g, %g] in channel %d", lo, hi, ch)
		}
	}
	for i, c := range samples {
		for _, v := range c {
			if !isFinite(v) {
				return nil, invalidLattice("sample %d is not finite", i)
			}
		}
	}

	return &Lattice{
		dim:       dim,
		size:      size,
		domainMin: domainMin,
		domainMax: domainMax,
		samples:   samples,
	}, nil
}

// Identity returns the lattice which maps every colour to itself.
func Identity(dim, size int) *Lattice {
	n := numPoints(dim, size)
	if size < 2 || n == 0 || (dim != 1 && dim != 3) {
		panic(fmt.Sprintf("clut: invalid identity lattice %dD/%d", dim, size))
	}

	scale := float64(size - 1)
	samples := make([]Color, n)
	if dim == 1 {
		for i := range samples {
			v := float64(i) / scale
			samples[i] = Color{v, v, v}
		}
	} else {
		for i := range samples {
			r, g, b := i%size, (i/size)%size, i/(size*size)
			samples[i] = Color{float64(r) / scale, float64(g) / scale, float64(b) / scale}
		}
	}

	return &Lattice{
		dim:       dim,
		size:      size,
		domainMin: DefaultDomainMin,
		domainMax: DefaultDomainMax,
		samples:   samples,
	}
}

// Dim returns the dimension of the lattice, 1 or 3.
func (l *Lattice) Dim() int { return l.dim }

// Size returns the number of grid points per axis.
func (l *Lattice) Size() int { return l.size }

// Len returns the number of samples, Size()^Dim().
func (l *Lattice) Len() int { return len(l.samples) }

// Domain returns the input range covered by the lattice.
func (l *Lattice) Domain() (domainMin, domainMax Color) {
	return l.domainMin, l.domainMax
}

// HasDefaultDomain reports whether the lattice covers [0, 1] in every channel.
func (l *Lattice) HasDefaultDomain() bool {
	return l.domainMin == DefaultDomainMin && l.domainMax == DefaultDomainMax
}

// Samples returns a copy of the samples in canonical order.
func (l *Lattice) Samples() []Color {
	res := make([]Color, len(l.samples))
	copy(res, l.samples)
	return res
}

// SampleAt returns the output colour at an exact grid point.
// The number of coordinates must equal the dimension of the lattice and
// every coordinate must lie in [0, Size()).
func (l *Lattice) SampleAt(coord ...int) (Color, error) {
	if len(coord) != l.dim {
		return Color{}, invalidLattice("%d coordinates for a %dD lattice", len(coord), l.dim)
	}
	idx := 0
	stride := 1
	for _, c := range coord {
		if c < 0 || c >= l.size {
			return Color{}, invalidLattice("coordinate %v out of range [0, %d)", coord, l.size)
		}
		idx += c * stride
		stride *= l.size
	}
	return l.samples[idx], nil
}

// ContinuousSample returns the interpolated output colour for an input
// colour in the domain of the lattice.  Inputs outside the domain are
// clamped to the boundary.
func (l *Lattice) ContinuousSample(point Color) Color {
	return l.sampleNormalized(l.normalize(point), Trilinear)
}

// normalize maps a point of the domain to [0, 1]³.
func (l *Lattice) normalize(point Color) Color {
	var t Color
	for ch := range 3 {
		lo, hi := l.domainMin[ch], l.domainMax[ch]
		t[ch] = clamp((point[ch]-lo)/(hi-lo), 0, 1)
	}
	return t
}

// sampleNormalized interpolates at a point of [0, 1]³.
func (l *Lattice) sampleNormalized(t Color, method Interpolation) Color {
	if l.dim == 1 {
		return linearInterp1D(l.samples, t)
	}
	if method == Tetrahedral {
		return tetrahedralInterp3D(l.samples, l.size, t)
	}
	return trilinearInterp3D(l.samples, l.size, t)
}

// Equal reports whether two lattices have the same shape, domain and
// samples.
func (l *Lattice) Equal(other *Lattice) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil {
		return false
	}
	if l.dim != other.dim || l.size != other.size ||
		l.domainMin != other.domainMin || l.domainMax != other.domainMax {
		return false
	}
	for i := range l.samples {
		if l.samples[i] != other.samples[i] {
			return false
		}
	}
	return true
}

func (l *Lattice) String() string {
	return fmt.Sprintf("%dD lattice, size %d", l.dim, l.size)
}

// latticeIndex returns the canonical sample index of a 3D grid point.
func latticeIndex(size, r, g, b int) int {
	return r + size*(g+size*b)
}

// numPoints computes size^dim with overflow checking.  The result is 0 if
// the lattice would be too large.
func numPoints(dim, size int) int {
	n := uint64(1)
	for range dim {
		n *= uint64(size)
		if n > maxSamples {
			return 0
		}
	}
	return int(n)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
