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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"seehuhn.de/go/clut/observability"
)

// Options configures a [Converter].
// The zero value selects the defaults documented for each field.
type Options struct {
	// Size is the mesh size of the output.  If this is zero, the size of
	// the source is kept, unless the destination format requires a
	// different size.
	Size int

	// Interpolation selects the kernel used when resampling.
	Interpolation Interpolation

	// ThreeDLBitDepth is the output bit depth of 3DL files (default 12).
	ThreeDLBitDepth int

	// ThreeDLInputBitDepth is the bit depth of the 3DL breakpoint header
	// (default 10).
	ThreeDLInputBitDepth int

	// HaldBitDepth is the channel depth of Hald images, 8 or 16
	// (default 16).
	HaldBitDepth int

	// Title overrides the title found in the source file, for formats
	// which can store one.
	Title string

	// Logger receives diagnostics.  The default discards all output.
	Logger observability.Logger
}

// defaultExpandSize is the mesh size used when a 1D lattice is expanded
// into 3D and no size is requested.
const defaultExpandSize = 33

func (o *Options) withDefaults() Options {
	var res Options
	if o != nil {
		res = *o
	}
	if res.ThreeDLBitDepth == 0 {
		res.ThreeDLBitDepth = default3DLBitDepth
	}
	if res.ThreeDLInputBitDepth == 0 {
		res.ThreeDLInputBitDepth = default3DLInputBitDepth
	}
	if res.HaldBitDepth == 0 {
		res.HaldBitDepth = 16
	}
	if res.Logger == nil {
		res.Logger = observability.NopLogger{}
	}
	return res
}

// Stage is a state of the conversion pipeline.
type Stage int

// The pipeline stages, in the order they are visited.
const (
	StageDecoded Stage = iota
	StageResampled
	StageEncoded
)

func (s Stage) String() string {
	switch s {
	case StageDecoded:
		return "decoded"
	case StageResampled:
		return "resampled"
	case StageEncoded:
		return "encoded"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Result describes a completed conversion.
type Result struct {
	From, To Format

	// SourceDim and SourceSize describe the decoded lattice.
	SourceDim  int
	SourceSize int

	// Size is the mesh size of the output.
	Size int

	// Stages lists the pipeline stages visited.
	Stages []Stage

	// Bytes is the length of the encoded output.
	Bytes int
}

// Converter converts lookup tables from one format to another.
// A Converter can be used concurrently by multiple goroutines.
type Converter struct {
	from, to Format
	src, dst *codec
	opts     Options
}

// NewConverter returns a converter between the given formats.
// If either format is not supported, an [*UnsupportedConversionError] is
// returned.
func NewConverter(from, to Format, opts *Options) (*Converter, error) {
	src, ok1 := codecs[from]
	dst, ok2 := codecs[to]
	if !ok1 || !ok2 {
		return nil, &UnsupportedConversionError{From: from, To: to}
	}
	o := opts.withDefaults()
	if o.Size != 0 && (o.Size < 2 || numPoints(3, o.Size) == 0) {
		return nil, invalidLattice("cannot resample to size %d", o.Size)
	}
	return &Converter{
		from: from,
		to:   to,
		src:  src,
		dst:  dst,
		opts: o,
	}, nil
}

// Convert decodes a lookup table from r and writes it to w in the
// destination format.  The output is encoded completely before anything is
// written to w, so that nothing is written if the conversion fails.
func (c *Converter) Convert(r io.Reader, w io.Writer) (*Result, error) {
	log := c.opts.Logger.With(
		observability.String("from", string(c.from)),
		observability.String("to", string(c.to)))

	l, meta, err := c.src.decode(r, log)
	if err != nil {
		return nil, err
	}
	res := &Result{
		From:       c.from,
		To:         c.to,
		SourceDim:  l.dim,
		SourceSize: l.size,
		Stages:     []Stage{StageDecoded},
	}
	log.Debug("decoded",
		observability.Int("dim", l.dim),
		observability.Int("size", l.size))

	out, err := c.fit(l)
	if err != nil {
		return nil, err
	}
	if out != l {
		res.Stages = append(res.Stages, StageResampled)
		log.Debug("resampled",
			observability.Int("dim", out.dim),
			observability.Int("size", out.size),
			observability.String("method", c.opts.Interpolation.String()))
	}
	res.Size = out.size

	if !c.dst.storesDomain && !out.HasDefaultDomain() {
		lo, hi := out.Domain()
		log.Warn("input domain is not stored by the destination format",
			observability.String("min", fmt.Sprint(lo)),
			observability.String("max", fmt.Sprint(hi)))
	}

	buf := &bytes.Buffer{}
	err = c.dst.encode(buf, out, meta, &c.opts)
	if err != nil {
		return nil, err
	}
	res.Bytes = buf.Len()

	_, err = w.Write(buf.Bytes())
	if err != nil {
		return nil, err
	}
	res.Stages = append(res.Stages, StageEncoded)
	log.Debug("encoded", observability.Int("bytes", res.Bytes))
	return res, nil
}

// fit brings a lattice to the dimension and size required by the
// destination.  The lattice is returned unchanged if no resampling is
// needed.
func (c *Converter) fit(l *Lattice) (*Lattice, error) {
	size := l.size
	if c.opts.Size != 0 {
		size = c.opts.Size
	}

	if l.dim == 1 && c.dst.needs3D {
		if c.opts.Size == 0 {
			size = defaultExpandSize
		}
		return Expand(l, c.dst.fitSize(size))
	}

	size = c.dst.fitSize(size)
	if size == l.size {
		return l, nil
	}
	return Resample(l, size, c.opts.Interpolation)
}

// ConvertFile converts the file src into the file dst.
// The output is written to a temporary file in the destination directory,
// which is renamed to dst once the conversion has succeeded.
func (c *Converter) ConvertFile(src, dst string) (*Result, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var res *Result
	err = replaceFile(dst, func(w io.Writer) error {
		var err error
		res, err = c.Convert(in, w)
		if err != nil {
			return fileError(err, src)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Info("converted",
		observability.String("src", src),
		observability.String("dst", dst),
		observability.Int("size", res.Size))
	return res, nil
}

// EncodeFile writes a lattice in the given format to the file dst.
// As for [Converter.ConvertFile], an existing file is only replaced once
// encoding has succeeded.
func EncodeFile(dst string, f Format, l *Lattice, opts *Options) error {
	return replaceFile(dst, func(w io.Writer) error {
		return Encode(w, f, l, opts)
	})
}

// replaceFile calls write with a temporary file in the directory of dst,
// and renames the temporary file to dst if write succeeds.
func replaceFile(dst string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".clut-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // fails harmlessly after the rename

	err = write(tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Chmod(0o644)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

// Decode reads a lookup table in the given format.
func Decode(r io.Reader, f Format, opts *Options) (*Lattice, *Metadata, error) {
	c, ok := codecs[f]
	if !ok {
		return nil, nil, &UnsupportedConversionError{From: f}
	}
	o := opts.withDefaults()
	return c.decode(r, o.Logger)
}

// Encode writes a lattice in the given format.  The lattice is expanded and
// resampled as needed, in the same way as by [Converter.Convert].  Nothing
// is written if encoding fails.
func Encode(w io.Writer, f Format, l *Lattice, opts *Options) error {
	c, err := NewConverter(f, f, opts)
	if err != nil {
		return err
	}
	out, err := c.fit(l)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	err = c.dst.encode(buf, out, &Metadata{}, &c.opts)
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// fileError attaches a file name to a decoding error.
func fileError(err error, name string) error {
	switch err.(type) {
	case *MalformedMeshError, *MissingMeshSizeError:
		return withFile(err, name)
	default:
		return fmt.Errorf("%s: %w", name, err)
	}
}
