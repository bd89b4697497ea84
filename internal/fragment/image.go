package fragment

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
)

// convertImage re-encodes the decoded pixel buffer into the target codec.
// Pixel content is preserved; codec metadata is whatever the target encoder
// writes, so even a same-codec round trip is not byte identical.
func convertImage(buf []byte, origin, target string) ([]byte, error) {
	img, err := decodeImage(buf, origin)
	if err != nil {
		return nil, err
	}
	return encodeImage(img, target)
}

func decodeImage(buf []byte, origin string) (image.Image, error) {
	reader := bytes.NewReader(buf)

	var (
		img image.Image
		err error
	)
	switch codecFamily(origin) {
	case TypePNG:
		img, err = png.Decode(reader)
	case TypeJPEG:
		img, err = jpeg.Decode(reader)
	case TypeGIF:
		img, err = gif.Decode(reader)
	case TypeWebP:
		img, err = webp.Decode(reader)
	case TypeAVIF:
		img, err = avif.Decode(reader)
	default:
		return nil, fmt.Errorf("%w: no decoder for %s", ErrUnsupportedConversion, origin)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrConversionFailed, origin, err)
	}
	return img, nil
}

func encodeImage(img image.Image, target string) ([]byte, error) {
	var out bytes.Buffer

	var err error
	switch codecFamily(target) {
	case TypePNG:
		err = png.Encode(&out, img)
	case TypeJPEG:
		err = jpeg.Encode(&out, img, nil)
	case TypeGIF:
		err = gif.Encode(&out, img, nil)
	case TypeWebP:
		err = webp.Encode(&out, img)
	case TypeAVIF:
		err = avif.Encode(&out, img)
	default:
		return nil, fmt.Errorf("%w: no encoder for %s", ErrUnsupportedConversion, target)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrConversionFailed, target, err)
	}
	return out.Bytes(), nil
}
