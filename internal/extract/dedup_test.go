package extract

import (
	"image"
	"image/color"
	"testing"
)

// uniformImage builds a solid image; identical fills hash identically.
func uniformImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// gradientImage produces a hash distinct from any uniform fill.
func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x * 255) / w)
			if (x/8+y/8)%2 == 0 {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: uint8(255 - v), B: uint8(y % 256), A: 255})
		}
	}
	return img
}

func TestIsRecurringThreshold(t *testing.T) {
	d := NewImageDedup()
	logo := uniformImage(200, 200, color.White)
	for i := 0; i < 5; i++ {
		if d.IsRecurring(logo) {
			t.Fatalf("occurrence %d flagged recurring before threshold", i+1)
		}
	}
	if !d.IsRecurring(logo) {
		t.Fatal("occurrence above threshold not flagged recurring")
	}
}

func TestIsRecurringSizeFloor(t *testing.T) {
	d := NewImageDedup()
	tiny := uniformImage(50, 50, color.White)
	for i := 0; i < 3; i++ {
		if !d.IsRecurring(tiny) {
			t.Fatal("below-floor image must always be recurring")
		}
	}
	// Below-floor images never consume a hash slot.
	if len(d.hashes) != 0 {
		t.Fatalf("expected no hash slots, got %d", len(d.hashes))
	}
}

func TestSeedThenJudge(t *testing.T) {
	d := NewImageDedup()
	logo := uniformImage(200, 200, color.White)
	unique := gradientImage(200, 200)

	// First pass over a document with the logo on six pages and one figure.
	for i := 0; i < 6; i++ {
		d.Seed(logo)
	}
	d.Seed(unique)

	// Second pass: the logo is already over threshold, the figure is not.
	if !d.IsRecurring(logo) {
		t.Fatal("seeded logo not flagged recurring")
	}
	if d.IsRecurring(unique) {
		t.Fatal("unique figure flagged recurring")
	}
}
