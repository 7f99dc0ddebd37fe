package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	catalogMaxDimension    = 1024
	catalogWhitenThreshold = 240
	catalogBlurSigma       = 4.0
)

// PrepareCatalogImage normalizes an uploaded wardrobe photo: bounded to
// 1024px on the long side and composited onto a clean white background.
func PrepareCatalogImage(imageBytes []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	fitted := imaging.Fit(img, catalogMaxDimension, catalogMaxDimension, imaging.Lanczos)
	return whitenSmooth(fitted, catalogWhitenThreshold, catalogBlurSigma)
}

// WhitenBackgroundSmooth composites the image over a white background using a
// blurred luminance mask, so shadows fade out instead of leaving hard edges.
// threshold is the brightness (0-255) treated as background, blurSigma the
// feather radius of the mask.
func WhitenBackgroundSmooth(imageBytes []byte, threshold uint8, blurSigma float64) ([]byte, error) {
	originalImg, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return whitenSmooth(originalImg, threshold, blurSigma)
}

func whitenSmooth(originalImg image.Image, threshold uint8, blurSigma float64) ([]byte, error) {
	bounds := originalImg.Bounds()
	width, height := bounds.Max.X, bounds.Max.Y

	// Hard mask first: white marks background pixels, black the subject.
	mask := image.NewGray(bounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := originalImg.At(x, y)
			r, g, b, _ := c.RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)

			luminance := 0.299*float64(r8) + 0.587*float64(g8) + 0.114*float64(b8)

			if luminance >= float64(threshold) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			} else {
				mask.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}

	// Blurring the mask is what turns the hard cut into a feathered edge.
	blurredMask := imaging.Blur(mask, blurSigma)

	finalImg := image.NewNRGBA(bounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := originalImg.At(x, y).RGBA()

			maskAlpha, _, _, _ := blurredMask.At(x, y).RGBA()

			// Inverted mask logic: white on the mask means background, so
			// none of the original pixel survives there.
			alpha := 1.0 - float64(maskAlpha)/65535.0

			finalR := float64(r)*alpha + 65535.0*(1.0-alpha)
			finalG := float64(g)*alpha + 65535.0*(1.0-alpha)
			finalB := float64(b)*alpha + 65535.0*(1.0-alpha)

			finalImg.SetNRGBA(x, y, color.NRGBA{
				R: uint8(finalR / 257),
				G: uint8(finalG / 257),
				B: uint8(finalB / 257),
				A: uint8(a / 257),
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, finalImg); err != nil {
		return nil, fmt.Errorf("failed to encode final image: %w", err)
	}
	return buf.Bytes(), nil
}
