package pixcodec_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siderequest/internal/payload"
	"siderequest/internal/pixcodec"
)

func roundTrip(t *testing.T, obj payload.Object, size int) (payload.Object, []byte, error) {
	t.Helper()
	var enc pixcodec.Encoder
	b, err := enc.EncodePNG(obj, size)
	require.NoError(t, err)
	return pixcodec.DecodePNG(bytes.NewReader(b))
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, 3, pixcodec.Capacity(1))
	assert.Equal(t, 768, pixcodec.Capacity(16))
	assert.Equal(t, 0, pixcodec.Capacity(0))
	assert.Equal(t, 0, pixcodec.Capacity(-4))
	assert.Equal(t, pixcodec.MaxSide*pixcodec.MaxSide*3, pixcodec.Capacity(pixcodec.MaxSide))
}

func TestCapacity_BeyondMaxSide(t *testing.T) {
	for _, size := range []int{pixcodec.MaxSide + 1, math.MaxInt32, math.MaxInt} {
		assert.Equal(t, 0, pixcodec.Capacity(size), "size %d", size)
	}
}

func TestPack_BeyondMaxSideIsEmpty(t *testing.T) {
	for _, size := range []int{pixcodec.MaxSide + 1, math.MaxInt32, math.MaxInt, -1} {
		var img *image.RGBA
		require.NotPanics(t, func() { img = pixcodec.Encode(payload.Object{}, size) }, "size %d", size)
		assert.True(t, img.Bounds().Empty(), "size %d", size)
	}
}

func TestPack_RowMajorLayout(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	img := pixcodec.Pack(data, 2)
	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	assert.Equal(t, color.RGBA{1, 2, 3, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{4, 5, 6, 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{7, 8, 9, 255}, img.RGBAAt(0, 1))
	// partial group: missing channels are zero
	assert.Equal(t, color.RGBA{10, 0, 0, 255}, img.RGBAAt(1, 1))
}

func TestPack_TrailingPixelsBlack(t *testing.T) {
	img := pixcodec.Pack([]byte("ab"), 3)
	assert.Equal(t, color.RGBA{'a', 'b', 0, 255}, img.RGBAAt(0, 0))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if x == 0 && y == 0 {
				continue
			}
			assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestEncode_SinglePixelEmptyObject(t *testing.T) {
	img := pixcodec.Encode(payload.Object{}, 1)
	require.Equal(t, 1, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())
	// "{}" fills R and G, the third byte is padding
	assert.Equal(t, color.RGBA{'{', '}', 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, []byte("{}\x00"), pixcodec.Unpack(img))
	assert.Equal(t, []byte("{}"), pixcodec.Decode(img))
}

func TestEncode_Truncates(t *testing.T) {
	obj := payload.Object{payload.KV("username", strings.Repeat("x", 100))}
	full := payload.Marshal(obj)

	img := pixcodec.Encode(obj, 2)
	assert.Equal(t, 4, img.Bounds().Dx()*img.Bounds().Dy())

	got := pixcodec.Unpack(img)
	assert.Len(t, got, pixcodec.Capacity(2))
	assert.Equal(t, full[:12], got)
}

func TestRoundTrip(t *testing.T) {
	cases := []payload.Object{
		{},
		{payload.KV("username", "alice"), payload.KV("money", int64(0))},
		{payload.KV("error", "missing username")},
		{payload.KV("name", "zoë"), payload.KV("neg", int64(-12)), payload.KV("f", 1.5), payload.KV("ok", true), payload.KV("nil", nil)},
	}
	for _, obj := range cases {
		got, raw, err := roundTrip(t, obj, 16)
		require.NoError(t, err)
		assert.Equal(t, payload.Marshal(obj), raw)
		if len(obj) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, obj, got)
	}
}

func TestRoundTrip_ExactCapacity(t *testing.T) {
	// {"k":"..."} is 8 bytes of framing; 27 bytes fills a 3x3 grid exactly
	obj := payload.Object{payload.KV("k", strings.Repeat("v", 19))}
	require.Len(t, payload.Marshal(obj), pixcodec.Capacity(3))

	got, _, err := roundTrip(t, obj, 3)
	require.NoError(t, err)
	assert.Equal(t, obj, got)
}

// runes mixes ASCII, JSON metacharacters, control bytes and text outside
// the BMP so generated strings exercise every escape path.
var runes = []rune("abcXYZ019 _-\"\\/\n\t\x00\x01\x1féü☃中😀")

func randString(r *rand.Rand, n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = runes[r.Intn(len(runes))]
	}
	return string(out)
}

func randValue(r *rand.Rand, depth int) any {
	kind := r.Intn(8)
	if depth >= 2 {
		kind %= 5
	}
	switch kind {
	case 0:
		return randString(r, r.Intn(12))
	case 1:
		return r.Int63() - r.Int63()
	case 2:
		return float64(r.Intn(1<<20)-1<<19) + 0.25
	case 3:
		return r.Intn(2) == 0
	case 4:
		return nil
	case 5, 6:
		return randObject(r, depth+1)
	default:
		arr := make([]any, 1+r.Intn(4))
		for i := range arr {
			arr[i] = randValue(r, depth+1)
		}
		return arr
	}
}

// randObject returns a non-empty object with unique keys.
func randObject(r *rand.Rand, depth int) payload.Object {
	n := 1 + r.Intn(5)
	obj := make(payload.Object, 0, n)
	for i := 0; i < n; i++ {
		obj = append(obj, payload.KV(fmt.Sprintf("k%d_%s", i, randString(r, r.Intn(4))), randValue(r, depth)))
	}
	return obj
}

func TestRoundTrip_Generated(t *testing.T) {
	r := rand.New(rand.NewSource(20261014))
	for i := 0; i < 200; i++ {
		obj := randObject(r, 0)
		want := payload.Marshal(obj)
		// smallest grid that holds the payload
		size := 1
		for pixcodec.Capacity(size) < len(want) {
			size++
		}
		got, raw, err := roundTrip(t, obj, size)
		require.NoError(t, err, "case %d: %s", i, want)
		assert.Equal(t, want, raw, "case %d", i)
		assert.Equal(t, obj, got, "case %d", i)
	}
}

func TestRoundTrip_CapacityBoundary(t *testing.T) {
	// {"k":"..."} is 8 bytes of framing around the value
	for _, tc := range []struct {
		name  string
		delta int
		ok    bool
	}{
		{"one short of capacity", -1, true},
		{"exact capacity", 0, true},
		{"one past capacity", 1, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, size := range []int{3, 4, 7} {
				obj := payload.Object{payload.KV("k", strings.Repeat("v", pixcodec.Capacity(size)-8+tc.delta))}
				full := payload.Marshal(obj)
				require.Len(t, full, pixcodec.Capacity(size)+tc.delta)

				got, raw, err := roundTrip(t, obj, size)
				if tc.ok {
					require.NoError(t, err, "size %d", size)
					assert.Equal(t, obj, got)
					assert.Equal(t, full, raw)
					continue
				}
				require.ErrorIs(t, err, pixcodec.ErrTruncated, "size %d", size)
				assert.Equal(t, full[:pixcodec.Capacity(size)], raw)
			}
		})
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add("alice", int64(0), 16)
	f.Add("zoë ☃ 😀", int64(-12), 4)
	f.Add("\x00\"\\", int64(1<<62), 1)
	f.Fuzz(func(t *testing.T, name string, money int64, size int) {
		if size < 1 || size > 64 {
			t.Skip()
		}
		obj := payload.Object{payload.KV("username", name), payload.KV("money", money)}
		full := payload.Marshal(obj)
		got, raw, err := roundTrip(t, obj, size)
		if len(full) <= pixcodec.Capacity(size) {
			require.NoError(t, err)
			assert.Equal(t, full, raw)
			// invalid UTF-8 in name is replaced on marshal
			assert.Equal(t, payload.Marshal(got), full)
			return
		}
		require.ErrorIs(t, err, pixcodec.ErrTruncated)
		assert.Equal(t, full[:pixcodec.Capacity(size)], raw)
	})
}

func TestRoundTrip_TruncatedIsTolerated(t *testing.T) {
	obj := payload.Object{payload.KV("username", "alice"), payload.KV("money", int64(123456))}
	full := payload.Marshal(obj)

	got, raw, err := roundTrip(t, obj, 2)
	require.ErrorIs(t, err, pixcodec.ErrTruncated)
	assert.Nil(t, got)
	assert.Equal(t, full[:pixcodec.Capacity(2)], raw)
}

func TestEncodePNG_Deterministic(t *testing.T) {
	obj := payload.Object{payload.KV("username", "alice"), payload.KV("money", int64(50))}
	var enc pixcodec.Encoder
	a, err := enc.EncodePNG(obj, 8)
	require.NoError(t, err)
	b, err := enc.EncodePNG(obj, 8)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodePNG_CompressionLevelsSamePixels(t *testing.T) {
	obj := payload.Object{payload.KV("username", "alice")}
	var want []byte
	for _, level := range []string{"default", "none", "speed", "best"} {
		enc, err := pixcodec.NewEncoder(level)
		require.NoError(t, err)
		b, err := enc.EncodePNG(obj, 4)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(b))
		require.NoError(t, err)
		px := pixcodec.Unpack(img)
		if want == nil {
			want = px
		}
		assert.Equal(t, want, px, level)
	}
}

func TestParseCompression_Unknown(t *testing.T) {
	_, err := pixcodec.NewEncoder("ultra")
	assert.ErrorIs(t, err, pixcodec.ErrCompression)
}

func TestEncodePNG_IsOpaqueTruecolor(t *testing.T) {
	var enc pixcodec.Encoder
	b, err := enc.EncodePNG(payload.Object{}, 4)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel, cfg.ColorModel)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

func TestUnpack_GenericImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{'{', '}', 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{9, 9, 9, 255})
	assert.Equal(t, []byte{'{', '}', 0, 9, 9, 9}, pixcodec.Unpack(img))
	assert.Equal(t, []byte("{}"), pixcodec.Decode(img))
}

func TestDecodePNG_Errors(t *testing.T) {
	_, _, err := pixcodec.DecodePNG(strings.NewReader("not a png"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	_, _, err = pixcodec.DecodePNG(&buf)
	assert.ErrorIs(t, err, pixcodec.ErrNotSquare)
}
