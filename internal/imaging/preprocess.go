package imaging

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

func grayPix(v uint8) color.Gray { return color.Gray{Y: v} }

// Filter constants chosen for scanned permit pages: the fixed threshold maps
// anything brighter than 200 to 235, then the adaptive pass (block 21,
// offset 5) produces a clean black/white page for OCR.
const (
	fixedCutoff     = 200
	fixedValue      = 235
	adaptiveBlock   = 21
	adaptiveOffset  = 5
	darkForeground  = 128
)

// NormalizePage applies the full cleanup filter to one page: grayscale, crop
// to the bounding box of the largest dark region (if any), fixed threshold,
// then adaptive Gaussian threshold. Pages whose longest side exceeds maxDim
// are downscaled first.
func NormalizePage(img image.Image, maxDim int) *image.Gray {
	gray := toGray(img)
	if maxDim > 0 {
		gray = capSize(gray, maxDim)
	}
	if bounds, ok := largestRegionBounds(gray); ok {
		gray = crop(gray, bounds)
	}
	gray = fixedThreshold(gray, fixedCutoff, fixedValue)
	return adaptiveGaussianThreshold(gray, adaptiveBlock, adaptiveOffset)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

func capSize(g *image.Gray, maxDim int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return g
	}
	scale := float64(maxDim) / float64(longest)
	out := image.NewGray(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(out, out.Bounds(), g, g.Bounds(), xdraw.Src, nil)
	return out
}

func crop(g *image.Gray, r image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), g, r.Min, xdraw.Src)
	return out
}

// largestRegionBounds finds the bounding box of the largest 4-connected dark
// region, the analogue of cropping to the largest external contour. Returns
// ok=false when the page has no dark pixel at all.
func largestRegionBounds(g *image.Gray) (image.Rectangle, bool) {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w == 0 || h == 0 {
		return image.Rectangle{}, false
	}
	visited := make([]bool, w*h)
	dark := func(x, y int) bool {
		return g.GrayAt(g.Bounds().Min.X+x, g.Bounds().Min.Y+y).Y < darkForeground
	}

	var best image.Rectangle
	bestArea := 0
	stack := make([]int, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || !dark(x, y) {
				continue
			}
			// flood fill this component, tracking its bbox and pixel count
			minX, minY, maxX, maxY, area := x, y, x, y, 0
			stack = append(stack[:0], idx)
			visited[idx] = true
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur%w, cur/w
				area++
				if cx < minX {
					minX = cx
				}
				if cx > maxX {
					maxX = cx
				}
				if cy < minY {
					minY = cy
				}
				if cy > maxY {
					maxY = cy
				}
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if !visited[nidx] && dark(nx, ny) {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
			if area > bestArea {
				bestArea = area
				best = image.Rect(minX, minY, maxX+1, maxY+1)
			}
		}
	}
	if bestArea == 0 {
		return image.Rectangle{}, false
	}
	return best.Add(g.Bounds().Min), true
}

func fixedThreshold(g *image.Gray, cutoff, value uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if g.GrayAt(b.Min.X+x, b.Min.Y+y).Y > cutoff {
				out.SetGray(x, y, grayPix(value))
			}
		}
	}
	return out
}

// adaptiveGaussianThreshold binarizes against a per-pixel threshold: the
// Gaussian-weighted mean of the surrounding block minus offset.
func adaptiveGaussianThreshold(g *image.Gray, block int, offset float64) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	kernel := gaussianKernel(block)
	half := block / 2

	// separable blur: horizontal pass then vertical pass, replicated borders
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sx := clamp(x+k, 0, w-1)
				sum += kernel[k+half] * float64(g.GrayAt(b.Min.X+sx, b.Min.Y+y).Y)
			}
			tmp[y*w+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sy := clamp(y+k, 0, h-1)
				sum += kernel[k+half] * tmp[sy*w+x]
			}
			if float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > sum-offset {
				out.SetGray(x, y, grayPix(255))
			}
		}
	}
	return out
}

func gaussianKernel(size int) []float64 {
	// sigma per the usual CV convention for a given aperture
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var total float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += k[i]
	}
	for i := range k {
		k[i] /= total
	}
	return k
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
