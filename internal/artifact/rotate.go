package artifact

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rotate turns img by degrees about its centre, clockwise as seen on screen.
// The canvas keeps its size; corners that rotate in from outside the source
// are transparent. Sampling is nearest-neighbour.
func Rotate(img image.Image, degrees float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	// Image y grows downwards, so a positive angle in r2 reads clockwise.
	// Each destination pixel centre is mapped back into the source.
	centre := r2.Vec{X: float64(w) / 2, Y: float64(h) / 2}
	inverse := r2.NewRotation(-degrees*math.Pi/180, centre)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := inverse.Rotate(r2.Vec{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			sx := int(math.Floor(src.X))
			sy := int(math.Floor(src.Y))
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			c := color.NRGBAModel.Convert(img.At(b.Min.X+sx, b.Min.Y+sy)).(color.NRGBA)
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
