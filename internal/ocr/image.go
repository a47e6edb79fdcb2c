package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

const (
	contrastFactor  = 2.0
	sharpnessFactor = 1.5
	medianRadius    = 1 // 3x3 window
)

// EnhanceForOCR prepares a scanned page for recognition: grayscale,
// contrast boost, sharpening, then a median filter against scanner
// noise.
func EnhanceForOCR(img image.Image) *image.Gray {
	g := toGray(img)
	g = adjustContrast(g, contrastFactor)
	g = sharpen(g, sharpnessFactor)
	g = medianFilter(g, medianRadius)
	return g
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// adjustContrast scales every pixel away from the image mean, clamping
// to [0, 255].
func adjustContrast(g *image.Gray, factor float64) *image.Gray {
	pix := g.Pix
	if len(pix) == 0 {
		return g
	}

	var sum uint64
	for _, p := range pix {
		sum += uint64(p)
	}
	mean := float64(sum) / float64(len(pix))

	out := image.NewGray(g.Bounds())
	for i, p := range pix {
		out.Pix[i] = clampByte(mean + factor*(float64(p)-mean))
	}
	return out
}

// sharpen blends the image away from its box-blurred version:
// out = blur + factor*(orig - blur).
func sharpen(g *image.Gray, factor float64) *image.Gray {
	blur := boxBlur(g)
	out := image.NewGray(g.Bounds())
	for i := range g.Pix {
		b := float64(blur.Pix[i])
		out.Pix[i] = clampByte(b + factor*(float64(g.Pix[i])-b))
	}
	return out
}

func boxBlur(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < b.Min.X || xx >= b.Max.X || yy < b.Min.Y || yy >= b.Max.Y {
						continue
					}
					sum += int(g.GrayAt(xx, yy).Y)
					n++
				}
			}
			out.SetGray(x, y, grayVal(uint8(sum/n)))
		}
	}
	return out
}

func medianFilter(g *image.Gray, radius int) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	window := make([]int, 0, (2*radius+1)*(2*radius+1))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					xx, yy := x+dx, y+dy
					if xx < b.Min.X || xx >= b.Max.X || yy < b.Min.Y || yy >= b.Max.Y {
						continue
					}
					window = append(window, int(g.GrayAt(xx, yy).Y))
				}
			}
			sort.Ints(window)
			out.SetGray(x, y, grayVal(uint8(window[len(window)/2])))
		}
	}
	return out
}

func grayVal(v uint8) color.Gray {
	return color.Gray{Y: v}
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
