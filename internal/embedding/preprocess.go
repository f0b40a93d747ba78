package embedding

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the formats food photos arrive in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// imageSize is the square input resolution of the CLIP image tower.
const imageSize = 224

// CLIP normalization constants (per RGB channel).
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// preprocessImage decodes raw image bytes and converts them to the CHW
// float tensor layout the CLIP image tower expects: resized to
// imageSize x imageSize and channel-normalized.
func preprocessImage(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty bounds", ErrInvalidImage)
	}

	pixels := make([]float32, 3*imageSize*imageSize)
	plane := imageSize * imageSize
	for y := 0; y < imageSize; y++ {
		srcY := bounds.Min.Y + y*height/imageSize
		for x := 0; x < imageSize; x++ {
			srcX := bounds.Min.X + x*width/imageSize
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			idx := y*imageSize + x
			pixels[idx] = (float32(r)/65535.0 - clipMean[0]) / clipStd[0]
			pixels[plane+idx] = (float32(g)/65535.0 - clipMean[1]) / clipStd[1]
			pixels[2*plane+idx] = (float32(b)/65535.0 - clipMean[2]) / clipStd[2]
		}
	}
	return pixels, nil
}
