package vision

import (
	"image"

	"github.com/dgannon/appdriver/internal/platform"
)

// DefaultMatchThreshold is the minimum similarity for FindImage to report a
// match.
const DefaultMatchThreshold = 0.95

// matchStride is the pixel step between candidate positions during the
// coarse scan. Full per-pixel search is unnecessary for UI templates, which
// are axis-aligned and rendered at fixed scale.
const matchStride = 4

// TemplateMatcher is a coarse grid-search template matcher. It slides the
// template over the screenshot at matchStride, scores each position by
// sampled mean absolute difference, then refines the best candidate at
// single-pixel resolution.
type TemplateMatcher struct {
	// Threshold overrides DefaultMatchThreshold when > 0.
	Threshold float64
}

func (m *TemplateMatcher) threshold() float64 {
	if m.Threshold > 0 {
		return m.Threshold
	}
	return DefaultMatchThreshold
}

func (m *TemplateMatcher) Similarity(a, b image.Image) float64 {
	return Similarity(a, b)
}

func (m *TemplateMatcher) FindImage(screenshot, template image.Image) (platform.Bounds, bool) {
	if screenshot == nil || template == nil {
		return platform.Bounds{}, false
	}

	sb := screenshot.Bounds()
	tb := template.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	if tw == 0 || th == 0 || tw > sb.Dx() || th > sb.Dy() {
		return platform.Bounds{}, false
	}

	src := toRGBA(screenshot)
	tpl := toRGBA(template)

	bestX, bestY := 0, 0
	bestScore := -1.0

	maxX := sb.Dx() - tw
	maxY := sb.Dy() - th
	for y := 0; y <= maxY; y += matchStride {
		for x := 0; x <= maxX; x += matchStride {
			score := scoreAt(src, tpl, x, y, tw, th)
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}

	// Refine around the coarse winner.
	for y := bestY - matchStride + 1; y < bestY+matchStride; y++ {
		for x := bestX - matchStride + 1; x < bestX+matchStride; x++ {
			if x < 0 || y < 0 || x > maxX || y > maxY {
				continue
			}
			score := scoreAt(src, tpl, x, y, tw, th)
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}

	if bestScore < m.threshold() {
		return platform.Bounds{}, false
	}
	return platform.Bounds{
		X:      sb.Min.X + bestX,
		Y:      sb.Min.Y + bestY,
		Width:  tw,
		Height: th,
	}, true
}

// sampleStep subsamples template pixels during scoring; a UI template match
// is unambiguous enough that every 2nd pixel suffices.
const sampleStep = 2

func scoreAt(src, tpl *image.RGBA, ox, oy, tw, th int) float64 {
	var total, n int64
	for y := 0; y < th; y += sampleStep {
		for x := 0; x < tw; x += sampleStep {
			is := src.PixOffset(src.Rect.Min.X+ox+x, src.Rect.Min.Y+oy+y)
			it := tpl.PixOffset(tpl.Rect.Min.X+x, tpl.Rect.Min.Y+y)
			for c := 0; c < 3; c++ {
				d := int64(src.Pix[is+c]) - int64(tpl.Pix[it+c])
				if d < 0 {
					d = -d
				}
				total += d
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return 1.0 - float64(total)/float64(n*3*255)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}
