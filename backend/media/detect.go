package media

import (
	"bytes"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Detect sniffs the content type of data and checks it matches kind.
func Detect(data []byte, kind Kind) (string, error) {
	mt := mimetype.Detect(data)
	prefix := "image/"
	if kind == KindVideo {
		prefix = "video/"
	}
	if !strings.HasPrefix(mt.String(), prefix) {
		return "", errors.Wrapf(ErrUnsupportedType, "got %s", mt.String())
	}
	return mt.String(), nil
}

// ThumbnailWidth is the width of generated course thumbnails; height keeps the aspect ratio.
const ThumbnailWidth = 320

// Thumbnail returns a JPEG thumbnail of an image.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, errors.Wrap(err, "encode thumbnail")
	}
	return buf.Bytes(), nil
}
