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
	"math"
	"testing"
	"time"
)

// makeProfile wraps A2B0 tag data into a minimal RGB to RGB DeviceLink
// profile.
func makeProfile(a2b0 []byte) []byte {
	start := iccHeaderSize + 4 + 12
	buf := make([]byte, start+len(a2b0))
	putUint32(buf, 0, uint32(len(buf)))
	putUint32(buf, 8, iccVersion)
	putUint32(buf, 12, sigLink)
	putUint32(buf, 16, sigRGB)
	putUint32(buf, 20, sigRGB)
	putUint32(buf, 36, sigAcsp)
	putUint32(buf, iccHeaderSize, 1)
	putUint32(buf, iccHeaderSize+4, sigA2B0)
	putUint32(buf, iccHeaderSize+8, uint32(start))
	putUint32(buf, iccHeaderSize+12, uint32(len(a2b0)))
	copy(buf[start:], a2b0)
	return buf
}

func TestDeviceLinkRoundTrip(t *testing.T) {
	l := smoothLattice(5)
	buf := &bytes.Buffer{}
	err := EncodeDeviceLink(buf, l, &DeviceLinkOptions{
		Description:  "smooth",
		Copyright:    "public domain",
		CreationDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if int(getUint32(data, 0)) != len(data) {
		t.Errorf("size field %d, length %d", getUint32(data, 0), len(data))
	}
	if !checkProfileID(data) {
		t.Error("invalid profile ID")
	}

	out, meta, err := DecodeDeviceLink(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "smooth" || meta.BitDepth != 16 {
		t.Errorf("metadata %+v", meta)
	}
	if out.Size() != 5 {
		t.Fatalf("size %d", out.Size())
	}
	for i, c := range out.samples {
		for ch := range 3 {
			if diff := math.Abs(c[ch] - l.samples[i][ch]); diff > 1.0/65535 {
				t.Fatalf("sample %d channel %d: deviation %g", i, ch, diff)
			}
		}
	}
}

func TestDeviceLinkCLUTOrder(t *testing.T) {
	// The CLUT varies the first input (red) slowest.
	tag := encodeLinkLut(Identity(3, 2))
	clutStart := 52 + 3*2*2
	entry := func(k int) [3]uint16 {
		pos := clutStart + 6*k
		return [3]uint16{getUint16(tag, pos), getUint16(tag, pos+2), getUint16(tag, pos+4)}
	}
	if got := entry(1); got != [3]uint16{0, 0, 0xFFFF} {
		t.Errorf("entry 1 = %v", got)
	}
	if got := entry(4); got != [3]uint16{0xFFFF, 0, 0} {
		t.Errorf("entry 4 = %v", got)
	}
}

func TestDeviceLinkLut8(t *testing.T) {
	tag := make([]byte, 48+3*256+8*3+3*256)
	copy(tag, "mft1")
	tag[8], tag[9], tag[10] = 3, 3, 2
	for i := range 3 {
		putS15Fixed16(tag, 12+4*i*4, 1)
	}
	for ch := range 3 {
		for i := range 256 {
			tag[48+ch*256+i] = byte(i)
			tag[48+3*256+8*3+ch*256+i] = byte(i)
		}
	}
	for k := range 8 {
		r, g, b := k/4, (k/2)%2, k%2
		pos := 48 + 3*256 + 3*k
		tag[pos], tag[pos+1], tag[pos+2] = byte(255*r), byte(255*g), byte(255*b)
	}

	l, meta, err := DecodeDeviceLink(bytes.NewReader(makeProfile(tag)))
	if err != nil {
		t.Fatal(err)
	}
	if meta.BitDepth != 8 {
		t.Errorf("bit depth %d", meta.BitDepth)
	}
	if !l.Equal(Identity(3, 2)) {
		t.Errorf("got %v, want identity", l.Samples())
	}
}

func TestDeviceLinkOutputTables(t *testing.T) {
	tag := encodeLinkLut(Identity(3, 2))
	outStart := len(tag) - 3*2*2
	putUint16(tag, outStart, 0xFFFF) // invert channel 0
	putUint16(tag, outStart+2, 0)

	l, _, err := DecodeDeviceLink(bytes.NewReader(makeProfile(tag)))
	if err != nil {
		t.Fatal(err)
	}
	c, _ := l.SampleAt(0, 1, 0)
	if c != (Color{1, 1, 0}) {
		t.Errorf("got %v", c)
	}
	c, _ = l.SampleAt(1, 0, 1)
	if c != (Color{0, 0, 1}) {
		t.Errorf("got %v", c)
	}
}

func TestDeviceLinkErrors(t *testing.T) {
	good := makeProfile(encodeLinkLut(Identity(3, 2)))
	modify := func(f func(data []byte) []byte) []byte {
		return f(bytes.Clone(good))
	}

	cases := []struct {
		name   string
		data   []byte
		offset int
	}{
		{"short", good[:100], 0},
		{"signature", modify(func(d []byte) []byte { d[36] = 'x'; return d }), 36},
		{"size", modify(func(d []byte) []byte { putUint32(d, 0, uint32(len(d)+1)); return d }), 0},
		{"class", modify(func(d []byte) []byte { putUint32(d, 12, 0x6D6E7472); return d }), 12},
		{"colour space", modify(func(d []byte) []byte { putUint32(d, 16, 0x434D594B); return d }), 16},
		{"missing tag", modify(func(d []byte) []byte { putUint32(d, 132, sigDesc); return d }), 128},
		{"tag bounds", modify(func(d []byte) []byte { putUint32(d, 140, 1000); return d }), 132},
		{"inputs", modify(func(d []byte) []byte { d[144+8] = 4; return d }), 152},
		{"matrix", modify(func(d []byte) []byte { putS15Fixed16(d, 144+16, 0.5); return d }), 160},
		{"input table", modify(func(d []byte) []byte { putUint16(d, 144+52, 7); return d }), 196},
		{"type", modify(func(d []byte) []byte { copy(d[144:], "mAB "); return d }), 144},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := DecodeDeviceLink(bytes.NewReader(c.data))
			var linkErr *InvalidDeviceLinkError
			if !errors.As(err, &linkErr) {
				t.Fatalf("got %v, want InvalidDeviceLinkError", err)
			}
			if linkErr.Offset != c.offset {
				t.Errorf("offset %d, want %d (%v)", linkErr.Offset, c.offset, err)
			}
		})
	}
}

func TestDeviceLinkEncodeErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	var latticeErr *InvalidLatticeError
	if err := EncodeDeviceLink(buf, Identity(1, 4), nil); !errors.As(err, &latticeErr) {
		t.Errorf("1D: got %v", err)
	}
	tooLarge := &Lattice{dim: 3, size: 256} // the size is checked before the samples
	if err := EncodeDeviceLink(buf, tooLarge, nil); !errors.As(err, &latticeErr) {
		t.Errorf("size 256: got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written on error", buf.Len())
	}
}

func TestDecodeDescription(t *testing.T) {
	v2 := append([]byte("desc\x00\x00\x00\x00\x00\x00\x00\x06hello\x00"), make([]byte, 8)...)
	if got := decodeDescription(v2); got != "hello" {
		t.Errorf("textDescriptionType: got %q", got)
	}
	if got := decodeDescription(encodeMLUC("grüß")); got != "grüß" {
		t.Errorf("mluc: got %q", got)
	}
	if got := decodeDescription([]byte("mluc\x00\x00\x00\x00")); got != "" {
		t.Errorf("short mluc: got %q", got)
	}
}
