package media

import (
	"image"
	"os"

	"image-browser/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding
// the image.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn("failed to close image file %s: %v", path, closeErr)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
