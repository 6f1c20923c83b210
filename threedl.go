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
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"seehuhn.de/go/clut/observability"
)

// A 3DL file lists the output colour of every lattice point as a line of
// integers.  An optional header line gives the input breakpoints of each
// axis, which determine the mesh size N.  Data lines are ordered with blue
// varying fastest: data line k holds the grid point
// (k / N², (k / N) mod N, k mod N).

// ThreeDLOptions controls the encoding of 3DL files.
type ThreeDLOptions struct {
	// BitDepth is the number of bits of the output values.
	// The default is 12.
	BitDepth int

	// InputBitDepth is the number of bits used for the breakpoint header.
	// The default is 10.
	InputBitDepth int

	// Comments are written as "#" lines before the header.
	Comments []string
}

const (
	default3DLBitDepth      = 12
	default3DLInputBitDepth = 10
)

// breakpointTolerance is the permitted relative deviation of the
// breakpoint spacing from a uniform mesh.  A deviation of one code value
// is always allowed, since breakpoints are rounded to integers.
const breakpointTolerance = 0.07

type meshLine struct {
	line int
	vals []uint32
}

// Decode3DL reads a 3DL mesh.
// The returned metadata records the (declared or inferred) output bit depth.
func Decode3DL(r io.Reader) (*Lattice, *Metadata, error) {
	return decode3DL(r, observability.NopLogger{})
}

func decode3DL(r io.Reader, log observability.Logger) (*Lattice, *Metadata, error) {
	meta := &Metadata{}

	var numeric []meshLine
	meshSize, meshBits := 0, 0
	skipped := 0
	ls := newLineScanner(r)
	for ls.Scan() {
		text := ls.text
		if text == "" {
			continue
		}
		if !isDigit(text[0]) {
			fields := strings.Fields(text)
			switch {
			case fields[0] == "Mesh":
				if len(fields) != 3 {
					return nil, nil, malformed(ls.line, "Mesh directive needs 2 values")
				}
				in, err1 := strconv.Atoi(fields[1])
				out, err2 := strconv.Atoi(fields[2])
				if err1 != nil || err2 != nil || in < 1 || in > 8 || out < 1 || out > 16 {
					return nil, nil, malformed(ls.line, "invalid Mesh directive %q", text)
				}
				meshSize, meshBits = 1<<in + 1, out
			case text[0] == '#':
				meta.Comments = append(meta.Comments, strings.TrimSpace(text[1:]))
			default:
				log.Debug("3DL line skipped",
					observability.Int("line", ls.line),
					observability.String("text", text))
				skipped++
			}
			continue
		}

		fields := strings.Fields(text)
		vals := make([]uint32, len(fields))
		for i, tok := range fields {
			x, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				return nil, nil, malformed(ls.line, "invalid integer %q", tok)
			}
			if x > 0xFFFF {
				return nil, nil, malformed(ls.line, "value %d exceeds 16 bits", x)
			}
			vals[i] = uint32(x)
		}
		numeric = append(numeric, meshLine{line: ls.line, vals: vals})
	}
	if err := ls.Err(); err != nil {
		return nil, nil, err
	}
	if len(numeric) == 0 {
		return nil, nil, malformed(ls.line, "no data")
	}

	data := numeric
	size := 0
	if isBreakpointHeader(numeric) {
		header := numeric[0]
		n, err := checkBreakpoints(header)
		if err != nil {
			return nil, nil, err
		}
		if meshSize != 0 && meshSize != n {
			return nil, nil, malformed(header.line,
				"%d breakpoints, but Mesh directive declares %d", n, meshSize)
		}
		size = n
		data = numeric[1:]
	} else if meshSize != 0 {
		size = meshSize
	} else {
		size = int(math.Round(math.Cbrt(float64(len(data)))))
		if size*size*size != len(data) {
			last := data[len(data)-1].line
			return nil, nil, malformed(last, "%d data lines do not form a cube", len(data))
		}
	}
	if size < 2 {
		return nil, nil, malformed(numeric[0].line, "mesh size %d is less than 2", size)
	}
	n := numPoints(3, size)
	if n == 0 {
		return nil, nil, malformed(numeric[0].line, "mesh size %d is too large", size)
	}
	if len(data) > n {
		return nil, nil, malformed(data[n].line, "more than %d data lines", n)
	}
	if len(data) < n {
		last := numeric[len(numeric)-1].line
		return nil, nil, malformed(last, "%d data lines, need %d", len(data), n)
	}

	var maxVal uint32
	for _, d := range data {
		if len(d.vals) != 1 && len(d.vals) != 3 {
			return nil, nil, malformed(d.line, "%d values, need 3", len(d.vals))
		}
		for _, v := range d.vals {
			maxVal = max(maxVal, v)
		}
	}

	depth := meshBits
	if depth == 0 {
		depth = bitsFor(maxVal, 8)
		log.Debug("3DL bit depth inferred",
			observability.Int("bits", depth),
			observability.Int("max", int(maxVal)))
	} else if maxVal > maxCode(depth) {
		for _, d := range data {
			for _, v := range d.vals {
				if v > maxCode(depth) {
					return nil, nil, malformed(d.line, "value %d exceeds %d bits", v, depth)
				}
			}
		}
	}
	meta.BitDepth = depth
	if skipped > 0 {
		log.Debug("3DL directives ignored", observability.Int("count", skipped))
	}

	top := maxCode(depth)
	samples := make([]Color, n)
	for k, d := range data {
		var c Color
		if len(d.vals) == 1 {
			v := dequantize(d.vals[0], top)
			c = Color{v, v, v}
		} else {
			c = Color{
				dequantize(d.vals[0], top),
				dequantize(d.vals[1], top),
				dequantize(d.vals[2], top),
			}
		}
		r, g, b := k/(size*size), (k/size)%size, k%size
		samples[latticeIndex(size, r, g, b)] = c
	}

	l, err := New(3, size, DefaultDomainMin, DefaultDomainMax, samples)
	if err != nil {
		return nil, nil, err
	}
	return l, meta, nil
}

// isBreakpointHeader decides whether the first numeric line of a 3DL file
// is a breakpoint header.  A line with three values is only taken as a
// header if it is ascending from 0 and exactly 27 data lines follow, since
// otherwise it cannot be told apart from a data line.
func isBreakpointHeader(numeric []meshLine) bool {
	first := numeric[0].vals
	if len(first) != 3 {
		return true
	}
	return first[0] == 0 && first[0] < first[1] && first[1] < first[2] &&
		len(numeric)-1 == 27
}

// checkBreakpoints validates a breakpoint header and returns the mesh size.
func checkBreakpoints(header meshLine) (int, error) {
	bp := header.vals
	if len(bp) < 2 {
		return 0, malformed(header.line, "breakpoint header needs at least 2 values")
	}
	if bp[0] != 0 {
		return 0, malformed(header.line, "first breakpoint is %d, not 0", bp[0])
	}
	step := float64(bp[len(bp)-1]) / float64(len(bp)-1)
	for i := 1; i < len(bp); i++ {
		if bp[i] <= bp[i-1] {
			return 0, malformed(header.line, "breakpoints are not ascending")
		}
		d := float64(bp[i] - bp[i-1])
		if math.Abs(d-step) > max(breakpointTolerance*step, 1) {
			return 0, malformed(header.line, "breakpoints are not uniformly spaced")
		}
	}
	return len(bp), nil
}

// Encode3DL writes a 3D lattice as a 3DL mesh.
// Sample values are clamped to the output range.  The domain of the lattice
// is not recorded.
//
// If the mesh size is 2^k+1 for some k between 1 and 8, a "Mesh k depth"
// directive records the output bit depth.  For other sizes the format has no
// place for the bit depth and readers infer it from the largest value, so
// that a dark lattice may be read back at a lower depth than it was written.
func Encode3DL(w io.Writer, l *Lattice, opts *ThreeDLOptions) error {
	depth := default3DLBitDepth
	inDepth := default3DLInputBitDepth
	var comments []string
	if opts != nil {
		if opts.BitDepth != 0 {
			depth = opts.BitDepth
		}
		if opts.InputBitDepth != 0 {
			inDepth = opts.InputBitDepth
		}
		comments = opts.Comments
	}
	if depth < 1 || depth > 16 {
		return &UnsupportedBitDepthError{Depth: depth}
	}
	if inDepth < 1 || inDepth > 16 {
		return &UnsupportedBitDepthError{Depth: inDepth}
	}
	if l.dim != 3 {
		return invalidLattice("3DL needs a 3D lattice, got %dD", l.dim)
	}
	size := l.size
	inTop := maxCode(inDepth)
	if uint32(size-1) > inTop {
		return invalidLattice("size %d is too large for %d-bit breakpoints", size, inDepth)
	}

	bw := bufio.NewWriter(w)
	for _, c := range comments {
		bw.WriteString("# " + c + "\n")
	}
	if k := meshBits(size); k > 0 {
		bw.WriteString("3DMESH\nMesh " + strconv.Itoa(k) + " " + strconv.Itoa(depth) + "\n")
	}

	var buf []byte
	for i, bp := range breakpoints(size, inTop) {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendUint(buf, uint64(bp), 10)
	}
	buf = append(buf, '\n')
	bw.Write(buf)

	top := maxCode(depth)
	for r := range size {
		for g := range size {
			for b := range size {
				c := l.samples[latticeIndex(size, r, g, b)]
				buf = buf[:0]
				buf = strconv.AppendUint(buf, uint64(quantize(c[0], top)), 10)
				buf = append(buf, ' ')
				buf = strconv.AppendUint(buf, uint64(quantize(c[1], top)), 10)
				buf = append(buf, ' ')
				buf = strconv.AppendUint(buf, uint64(quantize(c[2], top)), 10)
				buf = append(buf, '\n')
				bw.Write(buf)
			}
		}
	}
	return bw.Flush()
}

// breakpoints returns the uniform input breakpoints of a mesh, rounded to
// integers in the range 0, ..., top.
func breakpoints(size int, top uint32) []uint32 {
	res := make([]uint32, size)
	for i := range res {
		res[i] = uint32(math.Round(float64(i) * float64(top) / float64(size-1)))
	}
	return res
}

// meshBits returns k if size is 2^k+1 with 1 <= k <= 8, and 0 otherwise.
func meshBits(size int) int {
	for k := 1; k <= 8; k++ {
		if size == 1<<k + 1 {
			return k
		}
	}
	return 0
}
