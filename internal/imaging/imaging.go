package imaging

import (
	"bytes"

	img "github.com/disintegration/imaging"
)

// Processing targets: primary images are bounded to 800px / 300 KB,
// thumbnails to 400px / 100 KB. Everything is normalized to JPEG.
const (
	primaryMaxEdge  = 800
	thumbMaxEdge    = 400
	primaryMaxBytes = 300 << 10
	thumbMaxBytes   = 100 << 10
)

var jpegQualities = []int{85, 75, 65, 50, 35, 25}

// Process bounds an image's dimensions and encoded size and normalizes it
// to JPEG. It never fails the caller: on any decode or encode problem the
// original bytes come back unchanged.
func Process(raw []byte, thumbnail bool) []byte {
	maxEdge, maxBytes := primaryMaxEdge, primaryMaxBytes
	if thumbnail {
		maxEdge, maxBytes = thumbMaxEdge, thumbMaxBytes
	}

	decoded, err := img.Decode(bytes.NewReader(raw))
	if err != nil {
		return raw
	}

	bounds := decoded.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		decoded = img.Fit(decoded, maxEdge, maxEdge, img.Lanczos)
	}

	var best []byte
	for _, q := range jpegQualities {
		var buf bytes.Buffer
		if err := img.Encode(&buf, decoded, img.JPEG, img.JPEGQuality(q)); err != nil {
			return raw
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes()
		}
	}

	// the size ceiling is a target, not a hard limit: return the
	// smallest encoding rather than refusing the image
	return best
}
