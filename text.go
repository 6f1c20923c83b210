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
	"strings"
)

// maxLineLength limits the length of a single line in a text mesh.
const maxLineLength = 1 << 20

// lineScanner reads a text mesh line by line and keeps track of the
// 1-based line number.
type lineScanner struct {
	s    *bufio.Scanner
	line int
	text string
}

func newLineScanner(r io.Reader) *lineScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxLineLength)
	return &lineScanner{s: s}
}

// Scan advances to the next line.  Leading and trailing white space
// (including a byte order mark on the first line) is removed.
func (ls *lineScanner) Scan() bool {
	if !ls.s.Scan() {
		return false
	}
	ls.line++
	text := ls.s.Text()
	if ls.line == 1 {
		text = strings.TrimPrefix(text, "\ufeff")
	}
	ls.text = strings.TrimSpace(text)
	return true
}

func (ls *lineScanner) Err() error {
	err := ls.s.Err()
	if err == bufio.ErrTooLong {
		return malformed(ls.line+1, "line too long")
	}
	return err
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
