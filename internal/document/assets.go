package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	logoOnce  sync.Once
	logoLeft  []byte
	logoRight []byte
)

// defaultLogos returns the two title slide marks.
func defaultLogos() ([]byte, []byte) {
	logoOnce.Do(func() {
		logoLeft = solidPNG(240, 120, color.RGBA{R: 0x1F, G: 0x38, B: 0x64, A: 0xFF})
		logoRight = solidPNG(240, 120, color.RGBA{R: 0x2E, G: 0x75, B: 0xB6, A: 0xFF})
	})
	return logoLeft, logoRight
}

func solidPNG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
