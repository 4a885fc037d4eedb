package utils

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format (need jpeg/png/gif/webp)")

type ImageInfo struct {
	Format   string
	MIMEType string
	Width    int
	Height   int
}

// DetectImageInfo reads only the image header. Width and Height are the
// displayed size: JPEGs whose EXIF orientation rotates by 90 degrees have
// them swapped.
func DetectImageInfo(input []byte) (ImageInfo, error) {
	if len(input) == 0 {
		return ImageInfo{}, errors.New("empty image")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return ImageInfo{}, ErrUnsupportedImage
	}

	w, h := cfg.Width, cfg.Height
	if format == "jpeg" {
		w, h = orientedSize(w, h, readEXIFOrientation(bytes.NewReader(input)))
	}

	return ImageInfo{
		Format:   format,
		MIMEType: "image/" + format,
		Width:    w,
		Height:   h,
	}, nil
}

func readEXIFOrientation(r io.Reader) int {
	// Default orientation = 1 (no transform)
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	ori, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return ori
}

// EXIF orientations 5-8 are transposes or quarter turns.
func orientedSize(w, h, ori int) (int, int) {
	switch ori {
	case 5, 6, 7, 8:
		return h, w
	default:
		return w, h
	}
}
