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

	"github.com/lucasb-eyer/go-colorful"
)

// Difference summarises how far two lattices are apart.
type Difference struct {
	// MaxChannel and MeanChannel give the largest and the average
	// absolute difference of individual channel values.
	MaxChannel  float64
	MeanChannel float64

	// MaxDeltaE and MeanDeltaE give the largest and the average CIEDE2000
	// colour difference, with output values read as sRGB.
	MaxDeltaE  float64
	MeanDeltaE float64

	// Points is the number of lattice points compared.
	Points int
}

// Compare computes the differences between the samples of two lattices.
// If the lattices differ in shape, b is expanded and resampled to the
// dimension and size of a; if a is one-dimensional and b is not, a is
// expanded first.  Domains are not compared.
func Compare(a, b *Lattice) (*Difference, error) {
	var err error
	if a.dim == 1 && b.dim == 3 {
		a, err = Expand(a, b.size)
		if err != nil {
			return nil, err
		}
	}
	if a.dim == 3 && b.dim == 1 {
		b, err = Expand(b, a.size)
	} else {
		b, err = Resample(b, a.size, Trilinear)
	}
	if err != nil {
		return nil, err
	}

	d := &Difference{Points: len(a.samples)}
	var sumChannel, sumDeltaE float64
	for i, ca := range a.samples {
		cb := b.samples[i]
		for ch := range 3 {
			diff := math.Abs(ca[ch] - cb[ch])
			d.MaxChannel = max(d.MaxChannel, diff)
			sumChannel += diff
		}

		x := colorful.Color{R: ca[0], G: ca[1], B: ca[2]}.Clamped()
		y := colorful.Color{R: cb[0], G: cb[1], B: cb[2]}.Clamped()
		dE := x.DistanceCIEDE2000(y)
		d.MaxDeltaE = max(d.MaxDeltaE, dE)
		sumDeltaE += dE
	}
	d.MeanChannel = sumChannel / float64(3*d.Points)
	d.MeanDeltaE = sumDeltaE / float64(d.Points)
	return d, nil
}
