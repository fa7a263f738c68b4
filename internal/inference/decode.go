package inference

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// StripDataURI removes a "data:<mime>;base64," style header, if present.
func StripDataURI(payload string) string {
	if _, data, ok := strings.Cut(payload, ","); ok {
		return data
	}
	return payload
}

// DecodeBase64 decodes a base64 payload, optionally prefixed with a data URI
// header. Unpadded input is accepted.
func DecodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(StripDataURI(payload))
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
		}
	}
	return data, nil
}

// DecodeImage decodes a base64 image and flattens it to an opaque RGB image.
// Images whose longest side exceeds maxDim are scaled down to maxDim; a
// maxDim of zero keeps the original size.
func DecodeImage(payload string, maxDim int) (*image.RGBA, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", ErrDecode, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid image bounds %dx%d", ErrDecode, w, h)
	}

	if longest := max(w, h); maxDim > 0 && longest > maxDim {
		scale := float64(maxDim) / float64(longest)
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	// Alpha is dropped by compositing onto black.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, xdraw.Src)
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	}

	return dst, nil
}

// DecodePCM decodes a base64 buffer of little-endian float32 mono samples.
func DecodePCM(payload string) ([]float32, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}

	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 samples", ErrDecode, len(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrDecode)
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}
