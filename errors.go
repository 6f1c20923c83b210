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
	"fmt"
)

// InvalidLatticeError indicates that a lattice violates the structural
// invariants of the canonical model.
type InvalidLatticeError struct {
	Reason string
}

func invalidLattice(format string, args ...any) error {
	return &InvalidLatticeError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidLatticeError) Error() string {
	return "clut: invalid lattice: " + e.Reason
}

// UnsupportedHaldSizeError indicates image or lattice dimensions which
// cannot be represented as a Hald CLUT.
//
// For decoding, Width and Height give the image size.  For encoding,
// Size gives the lattice size, which must be a perfect square.
type UnsupportedHaldSizeError struct {
	Width, Height int
	Size          int
}

func (e *UnsupportedHaldSizeError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("clut: lattice size %d is not a Hald level squared", e.Size)
	}
	return fmt.Sprintf("clut: %dx%d image is not a Hald CLUT", e.Width, e.Height)
}

// UnsupportedBitDepthError indicates an image or encoder setting with a
// channel depth other than 8 or 16 bits.
type UnsupportedBitDepthError struct {
	Depth int    // 0 if the depth could not be determined
	Model string // image type, for decoding
}

func (e *UnsupportedBitDepthError) Error() string {
	if e.Model != "" {
		return "clut: unsupported Hald image type " + e.Model
	}
	return fmt.Sprintf("clut: unsupported bit depth %d", e.Depth)
}

// MalformedMeshError indicates a syntax or consistency error in a text
// mesh (3DL or Cube).  Line is 1-based.
type MalformedMeshError struct {
	File   string
	Line   int
	Reason string
}

func malformed(line int, format string, args ...any) error {
	return &MalformedMeshError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

func (e *MalformedMeshError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("clut: %s:%d: malformed mesh: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("clut: malformed mesh (line %d): %s", e.Line, e.Reason)
}

// MissingMeshSizeError indicates a Cube file without a LUT_3D_SIZE or
// LUT_1D_SIZE directive before its first data line.
type MissingMeshSizeError struct {
	File string
	Line int // line of the first data line, or 0 at end of file
}

func (e *MissingMeshSizeError) Error() string {
	where := ""
	if e.File != "" {
		where = e.File + ": "
	}
	if e.Line > 0 {
		return fmt.Sprintf("clut: %smissing LUT size before data (line %d)", where, e.Line)
	}
	return fmt.Sprintf("clut: %smissing LUT size", where)
}

// UnsupportedConversionError is returned when no codec pair exists for a
// conversion.  It is reported before any file is touched.
type UnsupportedConversionError struct {
	From, To Format
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("clut: unsupported conversion from %q to %q", e.From, e.To)
}

// InvalidDeviceLinkError indicates that an ICC DeviceLink profile contains
// invalid binary data, or uses features outside what can be mapped to a
// lattice.
type InvalidDeviceLinkError struct {
	Offset int
	Reason string
}

func invalidDeviceLink(offset int, reason string) error {
	return &InvalidDeviceLinkError{Offset: offset, Reason: reason}
}

func (e *InvalidDeviceLinkError) Error() string {
	return fmt.Sprintf("clut: invalid device link (byte %d): %s", e.Offset, e.Reason)
}

// withFile records the file name in text mesh errors.
func withFile(err error, name string) error {
	switch err := err.(type) {
	case *MalformedMeshError:
		if err.File == "" {
			err.File = name
		}
	case *MissingMeshSizeError:
		if err.File == "" {
			err.File = name
		}
	}
	return err
}
