package imgutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x ^ y) * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// tinyWebP is a 1x1 lossless WebP.
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func webpData(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)
	return data
}

func TestDecodeBase64(t *testing.T) {
	payload := []byte("hello image")
	std := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name string
		raw  string
	}{
		{"plain", std},
		{"data url", "data:image/png;base64," + std},
		{"unpadded", base64.RawStdEncoding.EncodeToString(payload)},
		{"whitespace", "  " + std + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}

	_, err := DecodeBase64("")
	assert.Error(t, err)
	_, err = DecodeBase64("data:image/png;base64")
	assert.Error(t, err)
	_, err = DecodeBase64("!!!not base64!!!")
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	pngData := samplePNG(t, 4)
	assert.Equal(t, "image/png", DetectMIME(pngData, ""))
	assert.Equal(t, "image/webp", DetectMIME(pngData, "image/webp"))
	assert.Equal(t, "image/jpeg", DetectMIME([]byte("plain text"), ""))
}

func TestNormalize(t *testing.T) {
	pngData := samplePNG(t, 8)
	out, mime, err := Normalize(pngData)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngData, out, "accepted formats pass through untouched")

	var gifBuf bytes.Buffer
	src, _, err := image.Decode(bytes.NewReader(pngData))
	require.NoError(t, err)
	require.NoError(t, gif.Encode(&gifBuf, src, nil))

	out, mime, err = Normalize(gifBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, _, err = Normalize([]byte("nope"))
	assert.True(t, errors.Is(err, ErrNotImage))

	webp := webpData(t)
	out, mime, err = Normalize(webp)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, webp, out)
}

func TestNormalizeRejectsCorruptPayloads(t *testing.T) {
	pngData := samplePNG(t, 32)
	webp := webpData(t)

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated png", pngData[:len(pngData)/2]},
		{"png header only", pngData[:16]},
		{"jpeg magic", append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x42}, 64)...)},
		{"webp header with garbage", append(append([]byte{}, webp[:16]...), bytes.Repeat([]byte{0x00}, 1<<10)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.data)
			assert.ErrorIs(t, err, ErrNotImage)
		})
	}
}

func TestFitForVision(t *testing.T) {
	pngData := samplePNG(t, 128)

	out, mime, err := FitForVision(pngData, 0)
	require.NoError(t, err)
	assert.Equal(t, pngData, out)
	assert.Equal(t, "image/png", mime)

	out, mime, err = FitForVision(pngData, len(pngData)-1)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Less(t, len(out), len(pngData))

	_, _, err = FitForVision(pngData, 10)
	assert.Error(t, err)
}

func TestCompressWebP(t *testing.T) {
	out, err := CompressToJPEG(webpData(t), 85)
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}
