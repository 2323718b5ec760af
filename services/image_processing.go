package services

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const MaxImageDimension = 2048

var resizableFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/jpg":  imaging.JPEG,
	"image/png":  imaging.PNG,
}

// NormalizeImage downscales JPEG and PNG images so neither side exceeds
// maxDimension. Other formats, and images already small enough, are returned
// unchanged.
func NormalizeImage(data []byte, contentType string, maxDimension int) ([]byte, error) {
	format, ok := resizableFormats[contentType]
	if !ok {
		return data, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return data, nil
	}

	resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
