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
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"fortio.org/safecast"
	"golang.org/x/image/tiff"

	"seehuhn.de/go/clut/observability"
)

// A Hald CLUT of level L is a square image of L³×L³ pixels which holds a 3D
// lattice of size L².  Pixels are read in raster order, and pixel k holds the
// grid point (k mod N, (k/N) mod N, k/N²) for lattice size N: red varies
// fastest, blue slowest.  This coincides with the canonical lattice order.

// HaldOptions controls the encoding of Hald CLUT images.
type HaldOptions struct {
	// BitDepth is the number of bits per channel, 8 or 16.
	// The default is 16.
	BitDepth int

	// TIFF selects a TIFF container instead of PNG.
	TIFF bool
}

var (
	errHaldAlpha = errors.New("clut: Hald image has transparent pixels")
	errHaldGamma = errors.New("clut: Hald image has a gamma chunk")
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// DecodeHald reads a Hald CLUT from a PNG or TIFF image.
// The returned metadata records the bit depth of the image.
func DecodeHald(r io.Reader) (*Lattice, *Metadata, error) {
	return decodeHald(r, observability.NopLogger{})
}

func decodeHald(r io.Reader, log observability.Logger) (*Lattice, *Metadata, error) {
	r, err := checkPNGGamma(r)
	if err != nil {
		return nil, nil, err
	}
	img, container, err := image.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("clut: reading Hald image: %w", err)
	}

	depth, err := haldBitDepth(img)
	if err != nil {
		return nil, nil, err
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return nil, nil, errHaldAlpha
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	size := haldLatticeSize(width, height)
	if size == 0 {
		return nil, nil, &UnsupportedHaldSizeError{Width: width, Height: height}
	}
	log.Debug("Hald image",
		observability.String("container", container),
		observability.Int("width", width),
		observability.Int("bits", depth),
		observability.Int("size", size))

	top := maxCode(depth)
	shift := 16 - depth
	samples := make([]Color, size*size*size)
	for k := range samples {
		x, y := k%width, k/width
		cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

		r, g, b := k%size, (k/size)%size, k/(size*size)
		samples[latticeIndex(size, r, g, b)] = Color{
			dequantize(cr>>shift, top),
			dequantize(cg>>shift, top),
			dequantize(cb>>shift, top),
		}
	}

	l, err := New(3, size, DefaultDomainMin, DefaultDomainMax, samples)
	if err != nil {
		return nil, nil, err
	}
	return l, &Metadata{BitDepth: depth}, nil
}

// checkPNGGamma rejects PNG images with a gAMA chunk, since image/png
// ignores the gamma value.  The chunks before the image data are read and
// replayed; the returned reader yields the complete image.
// Non-PNG input is passed through unchanged.
func checkPNGGamma(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	sig, err := br.Peek(len(pngSignature))
	if err != nil || !bytes.Equal(sig, pngSignature) {
		return br, nil
	}

	head := &bytes.Buffer{}
	tr := io.TeeReader(br, head)
	_, err = io.CopyN(io.Discard, tr, int64(len(pngSignature)))
	for err == nil {
		var hdr [8]byte
		_, err = io.ReadFull(tr, hdr[:])
		if err != nil {
			break
		}
		switch string(hdr[4:]) {
		case "gAMA":
			return nil, errHaldGamma
		case "IDAT", "IEND":
			return io.MultiReader(head, br), nil
		}
		// skip the chunk data and CRC
		_, err = io.CopyN(io.Discard, tr, int64(getUint32(hdr[:], 0))+4)
	}
	// truncated input is reported by the PNG decoder
	return io.MultiReader(head, br), nil
}

// haldBitDepth returns the channel depth of a decoded image.  Only RGB and
// grey images with 8 or 16 bits per channel are accepted.
func haldBitDepth(img image.Image) (int, error) {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.Gray:
		return 8, nil
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		return 16, nil
	default:
		return 0, &UnsupportedBitDepthError{Model: fmt.Sprintf("%T", img)}
	}
}

// haldLatticeSize returns the lattice size N for a Hald image of the given
// dimensions, or 0 if the image is not square or its pixel count is not a
// perfect cube.
func haldLatticeSize(width, height int) int {
	if width != height || width < 1 {
		return 0
	}
	n := width * height
	size := int(math.Round(math.Cbrt(float64(n))))
	if size < 2 || size*size*size != n {
		return 0
	}
	return size
}

// HaldLevel returns the Hald level L of a lattice size N = L², or 0 if N is
// not a perfect square.
func HaldLevel(size int) int {
	level := int(math.Round(math.Sqrt(float64(size))))
	if level < 2 || level*level != size {
		return 0
	}
	return level
}

// nearestHaldSize returns the perfect square closest to size, at least 4.
func nearestHaldSize(size int) int {
	level := max(int(math.Round(math.Sqrt(float64(size)))), 2)
	return level * level
}

// EncodeHald writes a 3D lattice as a Hald CLUT image.
// The lattice size must be a perfect square.  Sample values are clamped to
// [0, 1]; the domain of the lattice is not recorded.
func EncodeHald(w io.Writer, l *Lattice, opts *HaldOptions) error {
	depth := 16
	useTIFF := false
	if opts != nil {
		if opts.BitDepth != 0 {
			depth = opts.BitDepth
		}
		useTIFF = opts.TIFF
	}
	if depth != 8 && depth != 16 {
		return &UnsupportedBitDepthError{Depth: depth}
	}
	if l.dim != 3 {
		return invalidLattice("a Hald CLUT needs a 3D lattice, got %dD", l.dim)
	}
	level := HaldLevel(l.size)
	if level == 0 {
		return &UnsupportedHaldSizeError{Size: l.size}
	}

	size := l.size
	side := level * level * level
	rect := image.Rect(0, 0, side, side)
	top := maxCode(depth)

	var img image.Image
	switch depth {
	case 8:
		img8 := image.NewNRGBA(rect)
		for k := range side * side {
			c, err := l.SampleAt(k%size, (k/size)%size, k/(size*size))
			if err != nil {
				return err
			}
			img8.SetNRGBA(k%side, k/side, color.NRGBA{
				R: safecast.MustConv[uint8](quantize(c[0], top)),
				G: safecast.MustConv[uint8](quantize(c[1], top)),
				B: safecast.MustConv[uint8](quantize(c[2], top)),
				A: 0xFF,
			})
		}
		img = img8
	case 16:
		img16 := image.NewNRGBA64(rect)
		for k := range side * side {
			c, err := l.SampleAt(k%size, (k/size)%size, k/(size*size))
			if err != nil {
				return err
			}
			img16.SetNRGBA64(k%side, k/side, color.NRGBA64{
				R: safecast.MustConv[uint16](quantize(c[0], top)),
				G: safecast.MustConv[uint16](quantize(c[1], top)),
				B: safecast.MustConv[uint16](quantize(c[2], top)),
				A: 0xFFFF,
			})
		}
		img = img16
	}

	if useTIFF {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(w, img)
}
