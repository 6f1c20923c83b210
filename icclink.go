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
	"crypto/md5"
	"io"
	"math"
	"time"
	"unicode/utf16"

	"fortio.org/safecast"

	"seehuhn.de/go/clut/observability"
)

// A DeviceLink profile is an ICC profile of class "link" which maps device
// colours directly to device colours.  Lattices are stored in the A2B0 tag,
// as a lut16Type (mft2) with identity matrix and linear input and output
// tables.  The CLUT of an ICC lut varies the first input slowest, so that
// blue varies fastest.

// DeviceLinkOptions controls the encoding of ICC DeviceLink profiles.
type DeviceLinkOptions struct {
	// Description is stored in the "desc" tag.
	Description string

	// Copyright is stored in the "cprt" tag.
	Copyright string

	// CreationDate is stored in the profile header.
	// If this is zero, the current time is used.
	CreationDate time.Time
}

const (
	iccHeaderSize     = 128
	iccVersion        = 0x04400000
	maxDeviceLinkSize = 128 << 20

	// maxDeviceLinkGrid is the largest grid size an 8-bit grid point
	// field can hold.
	maxDeviceLinkGrid = 255
)

const (
	sigAcsp = 0x61637370 // "acsp"
	sigLink = 0x6C696E6B // "link"
	sigRGB  = 0x52474220 // "RGB "
	sigDesc = 0x64657363 // "desc"
	sigCprt = 0x63707274 // "cprt"
	sigA2B0 = 0x41324230 // "A2B0"
)

// This is the value for the "PCS illuminant" header field (Bytes 68 to 79).
var d50 = []byte{
	0x00, 0x00, 0xf6, 0xd6, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0xd3, 0x2d,
}

// DecodeDeviceLink reads an RGB to RGB ICC DeviceLink profile.
// Only profiles whose A2B0 tag is a lut8Type or lut16Type with identity
// matrix and linear input tables can be represented as a lattice; output
// tables are applied to the CLUT entries.
func DecodeDeviceLink(r io.Reader) (*Lattice, *Metadata, error) {
	return decodeDeviceLink(r, observability.NopLogger{})
}

func decodeDeviceLink(r io.Reader, log observability.Logger) (*Lattice, *Metadata, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDeviceLinkSize+1))
	if err != nil {
		return nil, nil, err
	}
	if len(data) > maxDeviceLinkSize {
		return nil, nil, invalidDeviceLink(maxDeviceLinkSize, "profile is too large")
	}
	if len(data) < iccHeaderSize+4 {
		return nil, nil, invalidDeviceLink(0, "profile is too short")
	}
	if getUint32(data, 36) != sigAcsp {
		return nil, nil, invalidDeviceLink(36, "missing 'acsp' signature")
	}
	size := getUint32(data, 0)
	if size < iccHeaderSize+4 || uint64(size) > uint64(len(data)) {
		return nil, nil, invalidDeviceLink(0, "invalid profile size")
	}
	data = data[:size]
	if getUint32(data, 12) != sigLink {
		return nil, nil, invalidDeviceLink(12, "not a DeviceLink profile")
	}
	if getUint32(data, 16) != sigRGB || getUint32(data, 20) != sigRGB {
		return nil, nil, invalidDeviceLink(16, "only RGB to RGB links are supported")
	}
	if !checkProfileID(data) {
		log.Warn("ICC profile ID mismatch")
	}

	numTags := getUint32(data, iccHeaderSize)
	if uint64(numTags) > uint64((len(data)-iccHeaderSize-4)/12) {
		return nil, nil, invalidDeviceLink(iccHeaderSize, "too many tags")
	}
	minTagOffset := uint64(iccHeaderSize + 4 + int(numTags)*12)
	tags := make(map[uint32][]byte)
	tagPos := make(map[uint32]int)
	for i := range int(numTags) {
		offset := iccHeaderSize + 4 + i*12
		sig := getUint32(data, offset)
		start := uint64(getUint32(data, offset+4))
		end := start + uint64(getUint32(data, offset+8))
		if end-start < 4 {
			return nil, nil, invalidDeviceLink(offset+8, "tag is too small")
		}
		if start < minTagOffset || end > uint64(len(data)) {
			return nil, nil, invalidDeviceLink(offset, "tag is out of bounds")
		}
		tags[sig] = data[start:end]
		tagPos[sig] = int(start)
	}

	lutData, ok := tags[sigA2B0]
	if !ok {
		return nil, nil, invalidDeviceLink(iccHeaderSize, "missing A2B0 tag")
	}
	l, depth, err := decodeLinkLut(lutData, tagPos[sigA2B0])
	if err != nil {
		return nil, nil, err
	}

	meta := &Metadata{BitDepth: depth}
	if desc, ok := tags[sigDesc]; ok {
		meta.Title = decodeDescription(desc)
	}
	log.Debug("DeviceLink decoded",
		observability.Int("size", l.size),
		observability.Int("bits", depth),
		observability.Int("tags", int(numTags)))
	return l, meta, nil
}

// decodeLinkLut converts a lut8Type or lut16Type tag into a lattice.
// base is the position of the tag in the profile, for error messages.
func decodeLinkLut(data []byte, base int) (*Lattice, int, error) {
	if len(data) < 48 {
		return nil, 0, invalidDeviceLink(base, "A2B0 tag is too short")
	}

	var depth, inEntries, outEntries, tableStart int
	switch string(data[0:4]) {
	case "mft1":
		depth, inEntries, outEntries, tableStart = 8, 256, 256, 48
	case "mft2":
		if len(data) < 52 {
			return nil, 0, invalidDeviceLink(base, "A2B0 tag is too short")
		}
		depth = 16
		inEntries = int(getUint16(data, 48))
		outEntries = int(getUint16(data, 50))
		tableStart = 52
		if inEntries < 2 || inEntries > 4096 || outEntries < 2 || outEntries > 4096 {
			return nil, 0, invalidDeviceLink(base+48, "invalid table size")
		}
	default:
		return nil, 0, invalidDeviceLink(base, "A2B0 is not a lut8Type or lut16Type")
	}
	if data[8] != 3 || data[9] != 3 {
		return nil, 0, invalidDeviceLink(base+8, "A2B0 does not have 3 inputs and 3 outputs")
	}
	size := int(data[10])
	if size < 2 {
		return nil, 0, invalidDeviceLink(base+10, "A2B0 has fewer than 2 grid points")
	}
	for i := range 9 {
		want := 0.0
		if i%4 == 0 {
			want = 1
		}
		if math.Abs(getS15Fixed16(data, 12+i*4)-want) > 1.0/65536 {
			return nil, 0, invalidDeviceLink(base+12+i*4, "A2B0 matrix is not the identity")
		}
	}

	width := depth / 8
	top := maxCode(depth)
	get := func(pos int) uint32 {
		if width == 1 {
			return uint32(data[pos])
		}
		return uint32(getUint16(data, pos))
	}

	n := size * size * size
	inSize := 3 * inEntries * width
	clutSize := 3 * n * width
	outSize := 3 * outEntries * width
	if len(data) < tableStart+inSize+clutSize+outSize {
		return nil, 0, invalidDeviceLink(base, "A2B0 tag is truncated")
	}

	for i := range 3 * inEntries {
		j := i % inEntries
		want := float64(j) * float64(top) / float64(inEntries-1)
		if math.Abs(float64(get(tableStart+i*width))-want) > 1 {
			return nil, 0, invalidDeviceLink(base+tableStart+i*width,
				"A2B0 input tables are not linear")
		}
	}

	outStart := tableStart + inSize + clutSize
	outTables := make([][]float64, 3)
	for ch := range outTables {
		table := make([]float64, outEntries)
		for i := range table {
			table[i] = dequantize(get(outStart+(ch*outEntries+i)*width), top)
		}
		outTables[ch] = table
	}

	clutStart := tableStart + inSize
	samples := make([]Color, n)
	for k := range n {
		var c Color
		for ch := range 3 {
			v := dequantize(get(clutStart+(3*k+ch)*width), top)
			c[ch] = applyTable(outTables[ch], v)
		}
		r, g, b := k/(size*size), (k/size)%size, k%size
		samples[latticeIndex(size, r, g, b)] = c
	}

	l, err := New(3, size, DefaultDomainMin, DefaultDomainMax, samples)
	if err != nil {
		return nil, 0, err
	}
	return l, depth, nil
}

// applyTable evaluates a sampled curve at v in [0, 1] by linear
// interpolation.
func applyTable(table []float64, v float64) float64 {
	pos := clamp(v, 0, 1) * float64(len(table)-1)
	i := int(pos)
	if i >= len(table)-1 {
		return table[len(table)-1]
	}
	f := pos - float64(i)
	return (1-f)*table[i] + f*table[i+1]
}

// decodeDescription extracts the first string from a "desc" tag, which is a
// multiLocalizedUnicodeType in version 4 profiles and a
// textDescriptionType in version 2 profiles.  Invalid data gives "".
func decodeDescription(data []byte) string {
	switch string(data[0:4]) {
	case "mluc":
		if len(data) < 28 || getUint32(data, 8) == 0 {
			return ""
		}
		length := uint64(getUint32(data, 20))
		start := uint64(getUint32(data, 24))
		if start+length > uint64(len(data)) || length%2 != 0 {
			return ""
		}
		d16 := make([]uint16, length/2)
		for j := range d16 {
			d16[j] = getUint16(data, int(start)+2*j)
		}
		return string(utf16.Decode(d16))
	case "desc":
		if len(data) < 12 {
			return ""
		}
		count := uint64(getUint32(data, 8))
		if 12+count > uint64(len(data)) {
			return ""
		}
		return string(bytes.TrimRight(data[12:12+count], "\x00"))
	}
	return ""
}

// checkProfileID verifies the MD5 profile ID, if one is present.
func checkProfileID(data []byte) bool {
	var given [16]byte
	copy(given[:], data[84:100])
	if given == [16]byte{} {
		return true
	}

	// The ID is computed over the whole profile, with the flags, rendering
	// intent and profile ID fields set to zero.
	tmp := bytes.Clone(data)
	putUint32(tmp, 44, 0)
	putUint32(tmp, 64, 0)
	clear(tmp[84:100])
	return md5.Sum(tmp) == given
}

// EncodeDeviceLink writes a 3D lattice as an ICC version 4.4 DeviceLink
// profile.  The lattice size must be at most 255.  Sample values are
// clamped to [0, 1] and stored with 16 bits; the domain of the lattice is
// not recorded.
func EncodeDeviceLink(w io.Writer, l *Lattice, opts *DeviceLinkOptions) error {
	if l.dim != 3 {
		return invalidLattice("a DeviceLink needs a 3D lattice, got %dD", l.dim)
	}
	if l.size > maxDeviceLinkGrid {
		return invalidLattice("size %d exceeds the DeviceLink limit of %d",
			l.size, maxDeviceLinkGrid)
	}

	var desc, cprt string
	date := time.Now()
	if opts != nil {
		desc = opts.Description
		cprt = opts.Copyright
		if !opts.CreationDate.IsZero() {
			date = opts.CreationDate
		}
	}
	if desc == "" {
		desc = "colour lookup table"
	}

	type tagInfo struct {
		sig  uint32
		data []byte
	}
	tags := []tagInfo{
		{sigDesc, encodeMLUC(desc)},
		{sigA2B0, encodeLinkLut(l)},
	}
	if cprt != "" {
		tags = append(tags, tagInfo{sigCprt, encodeMLUC(cprt)})
	}

	pos := iccHeaderSize + 4 + len(tags)*12
	starts := make([]int, len(tags))
	for i, tag := range tags {
		starts[i] = pos
		pos += (len(tag.data) + 3) &^ 3
	}

	buf := make([]byte, pos)
	putUint32(buf, 0, safecast.MustConv[uint32](pos))
	putUint32(buf, 8, iccVersion)
	putUint32(buf, 12, sigLink)
	putUint32(buf, 16, sigRGB)
	putUint32(buf, 20, sigRGB)
	putDateTime(buf, 24, date.UTC())
	putUint32(buf, 36, sigAcsp)
	copy(buf[68:], d50)

	putUint32(buf, iccHeaderSize, uint32(len(tags)))
	for i, tag := range tags {
		offset := iccHeaderSize + 4 + i*12
		putUint32(buf, offset, tag.sig)
		putUint32(buf, offset+4, uint32(starts[i]))
		putUint32(buf, offset+8, uint32(len(tag.data)))
		copy(buf[starts[i]:], tag.data)
	}

	// flags and rendering intent are zero, so the ID can be computed
	// directly
	h := md5.Sum(buf)
	copy(buf[84:], h[:])

	_, err := w.Write(buf)
	return err
}

// encodeLinkLut converts a 3D lattice into lut16Type (mft2) tag data.
func encodeLinkLut(l *Lattice) []byte {
	const entries = 2
	size := l.size
	n := size * size * size
	tableStart := 52
	clutStart := tableStart + 3*entries*2
	outStart := clutStart + 3*n*2

	buf := make([]byte, outStart+3*entries*2)
	copy(buf[0:4], "mft2")
	buf[8] = 3
	buf[9] = 3
	buf[10] = byte(size)

	for i := range 3 {
		putS15Fixed16(buf, 12+(4*i)*4, 1)
	}
	putUint16(buf, 48, entries)
	putUint16(buf, 50, entries)
	for ch := range 3 {
		putUint16(buf, tableStart+ch*entries*2+2, 0xFFFF)
		putUint16(buf, outStart+ch*entries*2+2, 0xFFFF)
	}

	pos := clutStart
	for r := range size {
		for g := range size {
			for b := range size {
				c := l.samples[latticeIndex(size, r, g, b)]
				for ch := range 3 {
					putUint16(buf, pos, safecast.MustConv[uint16](quantize(c[ch], 0xFFFF)))
					pos += 2
				}
			}
		}
	}
	return buf
}

// encodeMLUC encodes a string as a multiLocalizedUnicodeType with a single
// en-US record.
func encodeMLUC(s string) []byte {
	d16 := utf16.Encode([]rune(s))
	buf := make([]byte, 28+2*len(d16))
	copy(buf[0:4], "mluc")
	putUint32(buf, 8, 1)
	putUint32(buf, 12, 12)
	copy(buf[16:20], "enUS")
	putUint32(buf, 20, uint32(2*len(d16)))
	putUint32(buf, 24, 28)
	for i, x := range d16 {
		putUint16(buf, 28+2*i, x)
	}
	return buf
}

func getUint16(data []byte, offset int) uint16 {
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}

func getUint32(data []byte, offset int) uint32 {
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 | uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

func getS15Fixed16(data []byte, offset int) float64 {
	raw := int32(getUint32(data, offset))
	return float64(raw) / 65536.0
}

func putUint16(data []byte, offset int, value uint16) {
	data[offset] = byte(value >> 8)
	data[offset+1] = byte(value)
}

func putUint32(data []byte, offset int, value uint32) {
	data[offset] = byte(value >> 24)
	data[offset+1] = byte(value >> 16)
	data[offset+2] = byte(value >> 8)
	data[offset+3] = byte(value)
}

func putS15Fixed16(data []byte, offset int, value float64) {
	raw := int32(value * 65536.0)
	putUint32(data, offset, uint32(raw))
}

func putDateTime(data []byte, offset int, t time.Time) {
	year := t.Year()
	data[offset] = byte(year >> 8)
	data[offset+1] = byte(year)
	data[offset+3] = byte(t.Month())
	data[offset+5] = byte(t.Day())
	data[offset+7] = byte(t.Hour())
	data[offset+9] = byte(t.Minute())
	data[offset+11] = byte(t.Second())
}
