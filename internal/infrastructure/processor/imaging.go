package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/andreyxaxa/post-pipeline/pkg/types/errs"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder for probing
)

const _jpegQuality = 90

var probeExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

// Width reads only the image header.
func (p *ImageProcessor) Width(ext string, data []byte) (int, error) {
	if !probeExtensions[strings.ToLower(ext)] {
		return 0, fmt.Errorf("ImageProcessor - Width - %q: %w", ext, errs.ErrUnsupportedFormat)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("ImageProcessor - Width - image.DecodeConfig: %w", err)
	}

	return cfg.Width, nil
}

// ResizeToWidth scales proportionally so the result is exactly width pixels
// wide, and encodes it in the format implied by ext.
func (p *ImageProcessor) ResizeToWidth(ctx context.Context, ext string, data []byte, width int) ([]byte, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - ResizeToWidth - imaging.FormatFromExtension %q: %w", ext, errs.ErrUnsupportedFormat)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - ResizeToWidth - decodeImage: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - ResizeToWidth: %w", err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	res, err := encodeImage(resized, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - ResizeToWidth - encodeImage: %w", err)
	}

	return res, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func encodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(_jpegQuality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
