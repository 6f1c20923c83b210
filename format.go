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
	"io"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/clut/observability"
)

// Format identifies a lookup table file format.
type Format string

// The supported file formats.
const (
	FormatCube       Format = "cube"     // Adobe Cube, 1D or 3D
	Format3DL        Format = "3dl"      // 3DL integer mesh
	FormatHald       Format = "haldclut" // Hald CLUT in a PNG image
	FormatHaldTIFF   Format = "haldtiff" // Hald CLUT in a TIFF image
	FormatDeviceLink Format = "icc"      // ICC DeviceLink profile
)

// Metadata holds format-specific information found while decoding.
// Encoders use it where the destination format can represent it.
type Metadata struct {
	Title    string
	Comments []string

	// BitDepth is the channel depth of integer formats, or 0.
	BitDepth int
}

type decodeFunc func(r io.Reader, log observability.Logger) (*Lattice, *Metadata, error)

type encodeFunc func(w io.Writer, l *Lattice, meta *Metadata, opts *Options) error

// codec describes the capabilities of one file format.
type codec struct {
	extensions []string
	decode     decodeFunc
	encode     encodeFunc

	// needs3D is set if the encoder cannot store 1D lattices.
	needs3D bool

	// storesDomain is set if the format can record a non-default domain.
	storesDomain bool

	// fitSize maps a lattice size to the nearest size the encoder can
	// store.
	fitSize func(size int) int
}

var codecs = map[Format]*codec{
	FormatCube: {
		extensions:   []string{".cube"},
		decode:       decodeCube,
		encode:       encodeCubeWith,
		storesDomain: true,
		fitSize:      func(size int) int { return size },
	},
	Format3DL: {
		extensions: []string{".3dl"},
		decode:     decode3DL,
		encode:     encode3DLWith,
		needs3D:    true,
		fitSize:    func(size int) int { return size },
	},
	FormatHald: {
		extensions: []string{".png"},
		decode:     decodeHald,
		encode:     encodeHaldWith(false),
		needs3D:    true,
		fitSize:    nearestHaldSize,
	},
	FormatHaldTIFF: {
		extensions: []string{".tif", ".tiff"},
		decode:     decodeHald,
		encode:     encodeHaldWith(true),
		needs3D:    true,
		fitSize:    nearestHaldSize,
	},
	FormatDeviceLink: {
		extensions: []string{".icc", ".icm"},
		decode:     decodeDeviceLink,
		encode:     encodeDeviceLinkWith,
		needs3D:    true,
		fitSize:    func(size int) int { return min(size, maxDeviceLinkGrid) },
	},
}

var formatAliases = map[string]Format{
	"hald":       FormatHald,
	"png":        FormatHald,
	"tif":        FormatHaldTIFF,
	"tiff":       FormatHaldTIFF,
	"icm":        FormatDeviceLink,
	"devicelink": FormatDeviceLink,
}

// Formats returns the names of all supported formats, in sorted order.
func Formats() []Format {
	res := maps.Keys(codecs)
	slices.Sort(res)
	return res
}

// ParseFormat converts a format name, as used on the command line, into a
// Format.  Names are case-insensitive.
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := codecs[Format(key)]; ok {
		return Format(key), nil
	}
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("clut: unknown format %q", name)
}

// FormatFromPath determines the format of a file from its extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for f, c := range codecs {
		if slices.Contains(c.extensions, ext) {
			return f, nil
		}
	}
	return "", fmt.Errorf("clut: cannot determine format of %q", path)
}

// Extension returns the preferred file name extension for the format,
// including the leading dot.
func (f Format) Extension() string {
	c, ok := codecs[f]
	if !ok {
		return ""
	}
	return c.extensions[0]
}

func encodeCubeWith(w io.Writer, l *Lattice, meta *Metadata, opts *Options) error {
	return EncodeCube(w, l, &CubeOptions{
		Title:    titleFor(meta, opts),
		Comments: meta.Comments,
	})
}

func encode3DLWith(w io.Writer, l *Lattice, meta *Metadata, opts *Options) error {
	return Encode3DL(w, l, &ThreeDLOptions{
		BitDepth:      opts.ThreeDLBitDepth,
		InputBitDepth: opts.ThreeDLInputBitDepth,
		Comments:      meta.Comments,
	})
}

func encodeHaldWith(useTIFF bool) encodeFunc {
	return func(w io.Writer, l *Lattice, _ *Metadata, opts *Options) error {
		return EncodeHald(w, l, &HaldOptions{
			BitDepth: opts.HaldBitDepth,
			TIFF:     useTIFF,
		})
	}
}

func encodeDeviceLinkWith(w io.Writer, l *Lattice, meta *Metadata, opts *Options) error {
	return EncodeDeviceLink(w, l, &DeviceLinkOptions{
		Description: titleFor(meta, opts),
	})
}

// titleFor returns the title set in the options, or else the title found
// in the source file.
func titleFor(meta *Metadata, opts *Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	return meta.Title
}
