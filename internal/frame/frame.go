// Package frame handles the image boundary of the pipeline: decoding
// incoming frames from files or base64 payloads and encoding canonical card
// images back to exchange formats. The analysis core itself only ever sees
// image.Image values.
package frame

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder
	"image/jpeg"
	"image/png"
	"strings"
)

// Decode converts a base64-encoded image payload (optionally carrying a
// data-URL prefix) into an image.
func Decode(encoded string) (image.Image, error) {
	// Strip a data URL prefix such as "data:image/jpeg;base64,".
	if idx := strings.IndexByte(encoded, ','); idx >= 0 {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG serializes an image as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG serializes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64JPEG serializes an image as JPEG and wraps it in base64, the
// shape streaming callers send back over the wire.
func EncodeBase64JPEG(img image.Image, quality int) (string, error) {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
