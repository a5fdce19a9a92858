package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// thumbSize is the side length both images are downscaled to before
// comparison. Downscaling makes the score resolution-independent and keeps
// full-screen comparisons cheap enough for a 500ms polling loop.
const thumbSize = 64

// Similarity scores how alike two images are, in [0, 1]. 1.0 means pixel
// -identical after downscaling; antialiasing noise between consecutive
// captures of a static screen stays well above 0.98.
func Similarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}

	ta := thumbnail(a)
	tb := thumbnail(b)

	var total int64
	for y := 0; y < thumbSize; y++ {
		for x := 0; x < thumbSize; x++ {
			ia := ta.PixOffset(x, y)
			ib := tb.PixOffset(x, y)
			// R, G, B; alpha is irrelevant for screen captures.
			for c := 0; c < 3; c++ {
				d := int64(ta.Pix[ia+c]) - int64(tb.Pix[ib+c])
				if d < 0 {
					d = -d
				}
				total += d
			}
		}
	}

	maxDiff := int64(thumbSize * thumbSize * 3 * 255)
	return 1.0 - float64(total)/float64(maxDiff)
}

func thumbnail(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, thumbSize, thumbSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
