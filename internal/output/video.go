package output

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/icza/mjpeg"
)

// VideoFPS is the frame rate of the generated videos.
const VideoFPS = 2

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// CreateVideoFromImages writes an MJPEG AVI with one frame per image. The first image sets
// the frame size. ".avi" is appended to outputPath when missing.
func CreateVideoFromImages(imagePaths []string, outputPath string) (string, error) {
	if len(imagePaths) == 0 {
		return "", fmt.Errorf("no images to encode")
	}
	if !strings.HasSuffix(outputPath, ".avi") {
		outputPath += ".avi"
	}

	first, err := decodeImage(imagePaths[0])
	if err != nil {
		return "", err
	}
	bounds := first.Bounds()

	writer, err := mjpeg.New(outputPath, int32(bounds.Dx()), int32(bounds.Dy()), VideoFPS)
	if err != nil {
		return "", err
	}

	for _, path := range imagePaths {
		img, err := decodeImage(path)
		if err != nil {
			writer.Close()
			return "", fmt.Errorf("failed to decode %s: %w", path, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
			writer.Close()
			return "", err
		}
		if err := writer.AddFrame(buf.Bytes()); err != nil {
			writer.Close()
			return "", err
		}
	}
	return outputPath, writer.Close()
}
