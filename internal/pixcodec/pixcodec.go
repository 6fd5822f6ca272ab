// Package pixcodec carries payload bytes inside the RGB channels of a
// square PNG image.
//
// The byte stream is laid out three bytes per pixel (R, G, B) in row-major
// order starting at the top-left corner. Unused capacity is zero. A stream
// longer than the grid is cut at capacity without error, so a client may
// see a truncated payload.
package pixcodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"siderequest/internal/payload"
)

// BytesPerPixel is the number of payload bytes stored in one pixel.
const BytesPerPixel = 3

var (
	ErrTruncated   = errors.New("pixcodec: payload truncated or corrupt")
	ErrNotSquare   = errors.New("pixcodec: image is not square")
	ErrCompression = errors.New("pixcodec: unknown compression level")
)

// MaxSide is the largest side length Pack will allocate. A MaxSide grid
// needs a 4 GiB RGBA buffer, so size*size*4 never overflows a 64-bit int.
const MaxSide = 1 << 15

// side maps sizes outside [1, MaxSide] to 0.
func side(size int) int {
	if size <= 0 || size > MaxSide {
		return 0
	}
	return size
}

// Capacity returns how many payload bytes a size×size grid holds. It is 0
// for sizes outside [1, MaxSide].
func Capacity(size int) int {
	size = side(size)
	return size * size * BytesPerPixel
}

// Pack lays data into a fresh size×size image. Alpha is always opaque so
// the PNG is written as 8-bit truecolor.
//
// Pack does not fail. Callers reject sizes outside [1, MaxSide] before
// getting here; such a size yields an empty image.
func Pack(data []byte, size int) *image.RGBA {
	size = side(size)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	capacity := Capacity(size)
	if len(data) > capacity {
		data = data[:capacity]
	}

	// Pix is row-major RGBA with Stride == 4*size for a fresh image.
	for px := 0; px < size*size; px++ {
		off := px * 4
		src := px * BytesPerPixel
		for ch := 0; ch < BytesPerPixel; ch++ {
			if src+ch < len(data) {
				img.Pix[off+ch] = data[src+ch]
			}
		}
		img.Pix[off+3] = 0xff
	}
	return img
}

// Encode packs the canonical serialization of obj.
func Encode(obj payload.Object, size int) *image.RGBA {
	return Pack(payload.Marshal(obj), size)
}

// Unpack reads R, G, B of every pixel in row-major order. The result is
// width*height*3 bytes long.
func Unpack(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*BytesPerPixel)
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, y):rgba.PixOffset(b.Max.X, y)]
			for x := 0; x < len(row); x += 4 {
				out = append(out, row[x], row[x+1], row[x+2])
			}
		}
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return out
}

// Decode returns the payload bytes of img up to the first zero byte.
func Decode(img image.Image) []byte {
	raw := Unpack(img)
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// DecodePNG reads a PNG produced by Encoder and parses its payload. On a
// parse failure the returned error wraps ErrTruncated and raw still holds
// the recovered bytes so callers can show what made it through.
func DecodePNG(r io.Reader) (obj payload.Object, raw []byte, err error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("pixcodec: decode png: %w", err)
	}
	if b := img.Bounds(); b.Dx() != b.Dy() {
		return nil, nil, fmt.Errorf("%w: %dx%d", ErrNotSquare, b.Dx(), b.Dy())
	}
	raw = Decode(img)
	obj, err = payload.ParseBytes(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return obj, raw, nil
}
