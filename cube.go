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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"seehuhn.de/go/clut/observability"
)

// A Cube file consists of keyword lines followed by one data line per
// lattice point.  Data lines of 3D tables are ordered with red varying
// fastest, which is also the canonical lattice order.

// CubeOptions controls the encoding of Cube files.
type CubeOptions struct {
	Title    string
	Comments []string
}

// Limits for the mesh sizes accepted by the Cube decoder.
const (
	maxCube1DSize = 65536
	maxCube3DSize = 256
)

// DecodeCube reads an Adobe Cube file with a 1D or 3D table.
func DecodeCube(r io.Reader) (*Lattice, *Metadata, error) {
	return decodeCube(r, observability.NopLogger{})
}

func decodeCube(r io.Reader, log observability.Logger) (*Lattice, *Metadata, error) {
	meta := &Metadata{}
	dim, size := 0, 0
	domainMin, domainMax := DefaultDomainMin, DefaultDomainMax
	domainLine := 0
	var samples []Color
	dataSeen := false
	n := 0

	ls := newLineScanner(r)
	for ls.Scan() {
		text := ls.text
		if text == "" {
			continue
		}
		if text[0] == '#' {
			meta.Comments = append(meta.Comments, strings.TrimSpace(text[1:]))
			continue
		}

		if !isCubeData(text) {
			keyword := strings.Fields(text)[0]
			rest := strings.TrimSpace(text[len(keyword):])
			if dataSeen {
				return nil, nil, malformed(ls.line, "keyword %s after data", keyword)
			}

			switch keyword {
			case "TITLE":
				meta.Title = cubeTitle(rest)
			case "LUT_1D_SIZE", "LUT_3D_SIZE":
				if dim != 0 {
					return nil, nil, malformed(ls.line, "second size directive")
				}
				dim = 1
				limit := maxCube1DSize
				if keyword == "LUT_3D_SIZE" {
					dim = 3
					limit = maxCube3DSize
				}
				var err error
				size, err = strconv.Atoi(rest)
				if err != nil || size < 2 || size > limit {
					return nil, nil, malformed(ls.line, "invalid size %q", rest)
				}
				n = numPoints(dim, size)
			case "DOMAIN_MIN", "DOMAIN_MAX":
				c, err := parseCubeTriple(rest)
				if err != nil {
					return nil, nil, malformed(ls.line, "invalid %s: %s", keyword, err)
				}
				if keyword == "DOMAIN_MIN" {
					domainMin = c
				} else {
					domainMax = c
				}
				domainLine = ls.line
			case "LUT_1D_INPUT_RANGE", "LUT_3D_INPUT_RANGE":
				fields := strings.Fields(rest)
				if len(fields) != 2 {
					return nil, nil, malformed(ls.line, "%s needs 2 values", keyword)
				}
				lo, err1 := strconv.ParseFloat(fields[0], 64)
				hi, err2 := strconv.ParseFloat(fields[1], 64)
				if err1 != nil || err2 != nil || !isFinite(lo) || !isFinite(hi) {
					return nil, nil, malformed(ls.line, "invalid %s", keyword)
				}
				domainMin = Color{lo, lo, lo}
				domainMax = Color{hi, hi, hi}
				domainLine = ls.line
			default:
				log.Debug("Cube keyword skipped",
					observability.Int("line", ls.line),
					observability.String("keyword", keyword))
			}
			continue
		}

		if dim == 0 {
			return nil, nil, &MissingMeshSizeError{Line: ls.line}
		}
		dataSeen = true
		if len(samples) == n {
			return nil, nil, malformed(ls.line, "more than %d data lines", n)
		}
		c, err := parseCubeTriple(text)
		if err != nil {
			return nil, nil, malformed(ls.line, "%s", err)
		}
		samples = append(samples, c)
	}
	if err := ls.Err(); err != nil {
		return nil, nil, err
	}

	if dim == 0 {
		return nil, nil, &MissingMeshSizeError{}
	}
	if len(samples) != n {
		return nil, nil, malformed(ls.line, "%d data lines, need %d", len(samples), n)
	}
	for ch := range 3 {
		if domainMin[ch] >= domainMax[ch] {
			return nil, nil, malformed(domainLine, "empty domain in channel %d", ch)
		}
	}

	l, err := New(dim, size, domainMin, domainMax, samples)
	if err != nil {
		return nil, nil, err
	}
	return l, meta, nil
}

// isCubeData reports whether a line holds numbers rather than a keyword.
// Lines starting with "nan" or "inf" count as data, so that they are
// reported as invalid numbers.
func isCubeData(text string) bool {
	c := text[0]
	if isDigit(c) || c == '-' || c == '+' || c == '.' {
		return true
	}
	tok := strings.Fields(text)[0]
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

// cubeTitle extracts the title from the argument of a TITLE line.
// Titles written by EncodeCube are Go-quoted; other quoted titles are
// taken verbatim.
func cubeTitle(rest string) string {
	if title, err := strconv.Unquote(rest); err == nil {
		return title
	}
	return strings.Trim(rest, `"`)
}

// parseCubeTriple parses three floating point values, or a single value
// which is used for all three channels.
func parseCubeTriple(text string) (Color, error) {
	fields := strings.Fields(text)
	if len(fields) != 1 && len(fields) != 3 {
		return Color{}, errors.New("need 3 values")
	}
	var c Color
	for i, tok := range fields {
		x, err := strconv.ParseFloat(tok, 64)
		if err != nil || !isFinite(x) {
			return Color{}, fmt.Errorf("invalid number %q", tok)
		}
		c[i] = x
	}
	if len(fields) == 1 {
		c[1], c[2] = c[0], c[0]
	}
	return c, nil
}

// EncodeCube writes a lattice as an Adobe Cube file.
// Sample values are written with six decimal places.
func EncodeCube(w io.Writer, l *Lattice, opts *CubeOptions) error {
	bw := bufio.NewWriter(w)
	if opts != nil {
		for _, c := range opts.Comments {
			bw.WriteString("# " + c + "\n")
		}
		if opts.Title != "" {
			bw.WriteString("TITLE " + strconv.Quote(opts.Title) + "\n")
		}
	}

	keyword := "LUT_3D_SIZE"
	if l.dim == 1 {
		keyword = "LUT_1D_SIZE"
	}
	bw.WriteString(keyword + " " + strconv.Itoa(l.size) + "\n")
	if !l.HasDefaultDomain() {
		bw.WriteString("DOMAIN_MIN " + formatCubeDomain(l.domainMin) + "\n")
		bw.WriteString("DOMAIN_MAX " + formatCubeDomain(l.domainMax) + "\n")
	}

	var buf []byte
	for _, c := range l.samples {
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, c[0], 'f', 6, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, c[1], 'f', 6, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, c[2], 'f', 6, 64)
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	return bw.Flush()
}

func formatCubeDomain(c Color) string {
	return strconv.FormatFloat(c[0], 'f', -1, 64) + " " +
		strconv.FormatFloat(c[1], 'f', -1, 64) + " " +
		strconv.FormatFloat(c[2], 'f', -1, 64)
}
