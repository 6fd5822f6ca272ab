package pixcodec

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"siderequest/internal/payload"
)

// Encoder writes payload images as PNG. The zero value uses the default
// zlib level. Compression only changes file size, never pixel values.
type Encoder struct {
	png png.Encoder
}

// NewEncoder returns an Encoder for a named level: "default", "none",
// "speed" or "best".
func NewEncoder(level string) (*Encoder, error) {
	l, err := ParseCompression(level)
	if err != nil {
		return nil, err
	}
	return &Encoder{png: png.Encoder{CompressionLevel: l}}, nil
}

// ParseCompression maps a level name onto png.CompressionLevel.
func ParseCompression(level string) (png.CompressionLevel, error) {
	switch level {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrCompression, level)
}

// WritePNG encodes obj into a size×size PNG on w.
func (e *Encoder) WritePNG(w io.Writer, obj payload.Object, size int) error {
	return e.png.Encode(w, Encode(obj, size))
}

// EncodePNG returns the PNG bytes for obj.
func (e *Encoder) EncodePNG(obj payload.Object, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WritePNG(&buf, obj, size); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
