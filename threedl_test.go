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
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// identity3DL is a 10-bit identity mesh of size 2.
const identity3DL = `0 1023
0 0 0
0 0 1023
0 1023 0
0 1023 1023
1023 0 0
1023 0 1023
1023 1023 0
1023 1023 1023
`

func TestDecode3DLIdentity(t *testing.T) {
	l, meta, err := Decode3DL(strings.NewReader(identity3DL))
	if err != nil {
		t.Fatal(err)
	}
	if meta.BitDepth != 10 {
		t.Errorf("bit depth %d, want 10", meta.BitDepth)
	}
	if !l.Equal(Identity(3, 2)) {
		t.Errorf("got %v, want identity", l.Samples())
	}
}

func TestEncode3DLIdentity(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Encode3DL(buf, Identity(3, 2), &ThreeDLOptions{BitDepth: 10})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(identity3DL, buf.String()); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestMalformedLineNumber(t *testing.T) {
	in := `0 1023
0 0 0
0 0 1023
0 1023 0
1023 bad 512
1023 0 0
1023 0 1023
1023 1023 0
1023 1023 1023
`
	_, _, err := Decode3DL(strings.NewReader(in))
	var meshErr *MalformedMeshError
	if !errors.As(err, &meshErr) {
		t.Fatalf("got %v, want MalformedMeshError", err)
	}
	if meshErr.Line != 5 {
		t.Errorf("line %d, want 5", meshErr.Line)
	}
}

func Test3DLRoundTrip(t *testing.T) {
	l := smoothLattice(5)
	for _, depth := range []int{8, 10, 12, 16} {
		buf := &bytes.Buffer{}
		err := Encode3DL(buf, l, &ThreeDLOptions{BitDepth: depth, Comments: []string{"test"}})
		if err != nil {
			t.Fatal(err)
		}
		out, meta, err := Decode3DL(buf)
		if err != nil {
			t.Fatalf("%d bits: %v", depth, err)
		}
		if out.Size() != 5 {
			t.Fatalf("%d bits: size %d", depth, out.Size())
		}
		if len(meta.Comments) != 1 || meta.Comments[0] != "test" {
			t.Errorf("comments %q", meta.Comments)
		}

		if meta.BitDepth != depth {
			t.Errorf("read %d bits from %d-bit data", meta.BitDepth, depth)
		}
		tol := 0.5/float64(maxCode(depth)) + 1e-12
		for i, c := range out.samples {
			for ch := range 3 {
				want := l.samples[i][ch]
				if diff := math.Abs(c[ch] - want); diff > tol {
					t.Fatalf("%d bits, sample %d: got %g, want %g", depth, i, c[ch], want)
				}
			}
		}
	}
}

func Test3DLMeshDirective(t *testing.T) {
	var b strings.Builder
	b.WriteString("3DMESH\nMesh 1 12\n")
	for k := range 27 {
		fmt.Fprintf(&b, "%d %d %d\n", k, 2*k, 3*k)
	}
	l, meta, err := Decode3DL(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if l.Size() != 3 || meta.BitDepth != 12 {
		t.Fatalf("size %d, depth %d", l.Size(), meta.BitDepth)
	}
	// data line k=5 is (r, g, b) = (0, 1, 2)
	c, _ := l.SampleAt(0, 1, 2)
	want := Color{5.0 / 4095, 10.0 / 4095, 15.0 / 4095}
	if c != want {
		t.Errorf("got %v, want %v", c, want)
	}
}

func Test3DLNoHeader(t *testing.T) {
	in := strings.SplitN(identity3DL, "\n", 2)[1]
	l, _, err := Decode3DL(strings.NewReader("# no header\n" + in))
	if err != nil {
		t.Fatal(err)
	}
	if !l.Equal(Identity(3, 2)) {
		t.Error("not the identity")
	}
}

func Test3DLThreeValueHeader(t *testing.T) {
	var b strings.Builder
	b.WriteString("0 512 1023\n")
	for range 27 {
		b.WriteString("1 2 3\n")
	}
	l, _, err := Decode3DL(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if l.Size() != 3 {
		t.Errorf("size %d, want 3", l.Size())
	}
}

func Test3DLGrey(t *testing.T) {
	in := "0 255\n0\n0\n0\n0\n255\n255\n255\n255\n"
	l, meta, err := Decode3DL(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if meta.BitDepth != 8 {
		t.Errorf("depth %d, want 8", meta.BitDepth)
	}
	c, _ := l.SampleAt(1, 0, 0)
	if c != (Color{1, 1, 1}) {
		t.Errorf("got %v", c)
	}
}

func Test3DLErrors(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(identity3DL), "\n")
	cases := []struct {
		name string
		in   string
		line int
	}{
		{"short", strings.Join(lines[:8], "\n"), 8},
		{"long", identity3DL + "0 0 0\n", 10},
		{"not a cube", strings.Join(lines[1:8], "\n"), 7},
		{"uneven breakpoints", "0 100 200 1023\n", 1},
		{"breakpoints from 1", "1 1023\n", 1},
		{"two values", "0 1023\n0 0\n", 2},
		{"too large", "0 1023\n0 0 70000\n", 2},
		{"negative", "0 1023\n0 -1 0\n", 2},
		{"empty", "# nothing\n", 1},
		{"mesh exceeded", "Mesh 1 8\n" + strings.Repeat("256 0 0\n", 27), 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Decode3DL(strings.NewReader(c.in))
			var meshErr *MalformedMeshError
			if !errors.As(err, &meshErr) {
				t.Fatalf("got %v, want MalformedMeshError", err)
			}
			if meshErr.Line != c.line {
				t.Errorf("line %d, want %d (%v)", meshErr.Line, c.line, err)
			}
		})
	}
}

func TestEncode3DLErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode3DL(buf, Identity(1, 4), nil); err == nil {
		t.Error("1D: expected error")
	}
	if err := Encode3DL(buf, Identity(3, 4), &ThreeDLOptions{BitDepth: 17}); err == nil {
		t.Error("17 bits: expected error")
	}
	if err := Encode3DL(buf, Identity(3, 9), &ThreeDLOptions{InputBitDepth: 3}); err == nil {
		t.Error("9 breakpoints in 3 bits: expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written on error", buf.Len())
	}
}

func TestBreakpointsAccepted(t *testing.T) {
	for inDepth := 8; inDepth <= 16; inDepth++ {
		top := maxCode(inDepth)
		for size := 2; size <= 256 && uint32(size-1) <= top; size++ {
			header := meshLine{line: 1, vals: breakpoints(size, top)}
			n, err := checkBreakpoints(header)
			if err != nil {
				t.Fatalf("%d bits, size %d: %v", inDepth, size, err)
			}
			if n != size {
				t.Fatalf("%d bits, size %d: got size %d", inDepth, size, n)
			}
		}
	}
}

func Test3DLRoundTripLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("large mesh")
	}
	// the default 10-bit breakpoints of a 129-point mesh are not evenly spaced
	l := Identity(3, 129)
	buf := &bytes.Buffer{}
	err := Encode3DL(buf, l, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := Decode3DL(buf)
	if err != nil {
		t.Fatal(err)
	}
	if out.Size() != 129 {
		t.Errorf("size %d, want 129", out.Size())
	}
}

func Test3DLDarkRoundTrip(t *testing.T) {
	for _, size := range []int{3, 17, 33} {
		samples := make([]Color, size*size*size)
		for i := range samples {
			samples[i] = Color{0.2, 0.2, 0.2}
		}
		l, err := New(3, size, DefaultDomainMin, DefaultDomainMax, samples)
		if err != nil {
			t.Fatal(err)
		}
		buf := &bytes.Buffer{}
		err = Encode3DL(buf, l, nil)
		if err != nil {
			t.Fatal(err)
		}
		out, meta, err := Decode3DL(buf)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if meta.BitDepth != default3DLBitDepth {
			t.Errorf("size %d: %d bits, want %d", size, meta.BitDepth, default3DLBitDepth)
		}
		c, _ := out.SampleAt(1, 1, 1)
		if math.Abs(c[0]-0.2) > 0.5/4095 {
			t.Errorf("size %d: got %v, want 0.2", size, c)
		}
	}
}

func TestMeshBits(t *testing.T) {
	cases := map[int]int{2: 0, 3: 1, 5: 2, 17: 4, 33: 5, 64: 0, 65: 6, 257: 8, 513: 0}
	for size, want := range cases {
		if got := meshBits(size); got != want {
			t.Errorf("meshBits(%d) = %d, want %d", size, got, want)
		}
	}
}
