package artifact

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/foilwatch/internal/optimizer"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// quad is a 2x2 image: red top-left, green top-right, blue bottom-right,
// white bottom-left.
func quad() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)
	img.SetNRGBA(1, 1, blue)
	img.SetNRGBA(0, 1, white)
	return img
}

func TestRotate_Zero(t *testing.T) {
	out := Rotate(quad(), 0)
	assert.Equal(t, red, out.NRGBAAt(0, 0))
	assert.Equal(t, green, out.NRGBAAt(1, 0))
	assert.Equal(t, blue, out.NRGBAAt(1, 1))
	assert.Equal(t, white, out.NRGBAAt(0, 1))
}

func TestRotate_NinetyIsClockwise(t *testing.T) {
	out := Rotate(quad(), 90)
	assert.Equal(t, white, out.NRGBAAt(0, 0))
	assert.Equal(t, red, out.NRGBAAt(1, 0))
	assert.Equal(t, green, out.NRGBAAt(1, 1))
	assert.Equal(t, blue, out.NRGBAAt(0, 1))
}

func TestRotate_NegativeIsCounterClockwise(t *testing.T) {
	out := Rotate(quad(), -90)
	assert.Equal(t, green, out.NRGBAAt(0, 0))
	assert.Equal(t, blue, out.NRGBAAt(1, 0))
	assert.Equal(t, white, out.NRGBAAt(1, 1))
	assert.Equal(t, red, out.NRGBAAt(0, 1))
}

func TestRotate_KeepsCanvasAndClearsCorners(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 20, 20))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			src.SetNRGBA(x, y, red)
		}
	}

	out := Rotate(src, 45)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A, "corner should be transparent")
	assert.Equal(t, red, out.NRGBAAt(5, 5), "centre should stay filled")
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) FetchArtifact(context.Context) ([]byte, error) {
	return f.data, f.err
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderer_WritesRotatedPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	r := Renderer{
		Fetcher: fakeFetcher{data: encode(t, quad())},
		Dir:     dir,
		Now:     func() time.Time { return time.Date(2026, 3, 1, 14, 32, 15, 0, time.UTC) },
	}

	path, err := r.Render(context.Background(), optimizer.Result{AngleOfAttack: 90})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "airfoil-20260301-143215-aoa+90.00.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, red, color.NRGBAModel.Convert(img.At(1, 0)))
}

func TestRenderer_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Renderer{Fetcher: fakeFetcher{err: errors.New("down")}, Dir: dir}.Render(ctx, optimizer.Result{})
	assert.ErrorContains(t, err, "fetch artifact")

	_, err = Renderer{Fetcher: fakeFetcher{data: []byte("not a png")}, Dir: dir}.Render(ctx, optimizer.Result{})
	assert.ErrorContains(t, err, "decode artifact")

	_, err = Renderer{Dir: dir}.Render(ctx, optimizer.Result{})
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed renders must not leave files behind")
}
