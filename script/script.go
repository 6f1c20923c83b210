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

// Package script builds colour lookup tables from JavaScript programs.
//
// A program defines a function transform(r, g, b) which receives the
// normalised input colour and returns the output colour as an array of
// three numbers:
//
//	function transform(r, g, b) {
//	    var y = 0.2126*r + 0.7152*g + 0.0722*b;
//	    return [y, y, y];
//	}
//
// The global variable size holds the mesh size of the lattice being built.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"seehuhn.de/go/clut"
)

// ErrNoTransform is returned if a program does not define a transform
// function.
var ErrNoTransform = errors.New("script: no transform function defined")

// Generate evaluates the program src at every point of a 3D lattice of the
// given size.  An empty program gives the identity lattice.
// Cancelling ctx interrupts the program.
func Generate(ctx context.Context, src string, size int) (*clut.Lattice, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size < 2 || size > 256 {
		return nil, fmt.Errorf("script: invalid lattice size %d", size)
	}
	if src == "" {
		return clut.Identity(3, size), nil
	}

	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	err := vm.Set("size", size)
	if err != nil {
		return nil, err
	}
	_, err = vm.RunString(src)
	if err != nil {
		return nil, scriptError(err)
	}
	transform, ok := goja.AssertFunction(vm.Get("transform"))
	if !ok {
		return nil, ErrNoTransform
	}

	scale := float64(size - 1)
	samples := make([]clut.Color, size*size*size)
	for i := range samples {
		r, g, b := i%size, (i/size)%size, i/(size*size)
		val, err := transform(goja.Undefined(),
			vm.ToValue(float64(r)/scale),
			vm.ToValue(float64(g)/scale),
			vm.ToValue(float64(b)/scale))
		if err != nil {
			return nil, scriptError(err)
		}

		var out []float64
		err = vm.ExportTo(val, &out)
		if err != nil || len(out) != 3 {
			return nil, fmt.Errorf("script: transform(%d, %d, %d)/%d must return 3 numbers",
				r, g, b, size-1)
		}
		samples[i] = clut.Color{out[0], out[1], out[2]}
	}

	return clut.New(3, size, clut.DefaultDomainMin, clut.DefaultDomainMax, samples)
}

// scriptError unwraps the cause of an interrupted program.
func scriptError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return context.Canceled
	}
	return fmt.Errorf("script: %w", err)
}
