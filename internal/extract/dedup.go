package extract

import (
	"image"

	"github.com/corona10/goimagehash"
	"github.com/rs/zerolog/log"
)

const (
	defaultMinImageSize  = 100
	defaultHashThreshold = 5
)

// ImageDedup recognizes recurring document images (logos, decorations) by
// perceptual hash. One instance is scoped to a single document analysis and
// must not be shared across documents: the hash counts are the per-document
// state that recurrence is judged against.
type ImageDedup struct {
	hashes        map[string]int
	minImageSize  int
	hashThreshold int
}

func NewImageDedup() *ImageDedup {
	return &ImageDedup{
		hashes:        make(map[string]int),
		minImageSize:  defaultMinImageSize,
		hashThreshold: defaultHashThreshold,
	}
}

// Seed records one occurrence of the image's hash without classifying it.
// The PDF extractor seeds every image in the document first, so the second
// pass judges recurrence against whole-document frequency rather than only
// the pages seen so far.
func (d *ImageDedup) Seed(img image.Image) {
	if d.belowFloor(img) {
		return
	}
	h, err := averageHash(img)
	if err != nil {
		return
	}
	d.hashes[h]++
}

// IsRecurring reports whether the image should be excluded from description.
// Images below the size floor are always recurring and never consume a hash
// slot. Otherwise the hash counter is incremented on every call, including
// calls that return false.
func (d *ImageDedup) IsRecurring(img image.Image) bool {
	if d.belowFloor(img) {
		return true
	}
	h, err := averageHash(img)
	if err != nil {
		log.Debug().Err(err).Msg("image hash failed, treating image as recurring")
		return true
	}
	d.hashes[h]++
	return d.hashes[h] > d.hashThreshold
}

func (d *ImageDedup) belowFloor(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() < d.minImageSize || b.Dy() < d.minImageSize
}

func averageHash(img image.Image) (string, error) {
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return "", err
	}
	return h.ToString(), nil
}
