package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/foilwatch/internal/optimizer"
)

// Fetcher downloads the server's rendered airfoil.
type Fetcher interface {
	FetchArtifact(ctx context.Context) ([]byte, error)
}

// Renderer fetches the airfoil image after a completed job, rotates it by
// the angle of attack and writes it under Dir.
type Renderer struct {
	Fetcher Fetcher
	Dir     string
	Now     func() time.Time
}

// Render returns the path of the written PNG.
func (r Renderer) Render(ctx context.Context, res optimizer.Result) (string, error) {
	if r.Fetcher == nil {
		return "", fmt.Errorf("render artifact: no fetcher")
	}
	if r.Dir == "" {
		return "", fmt.Errorf("render artifact: output dir is empty")
	}

	raw, err := r.Fetcher.FetchArtifact(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch artifact: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode artifact: %w", err)
	}

	rotated := Rotate(img, res.AngleOfAttack)

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.Dir, r.fileName(res))
	var buf bytes.Buffer
	if err := png.Encode(&buf, rotated); err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("path", path).
		Float64("aoa", res.AngleOfAttack).
		Int("bytes", buf.Len()).
		Msg("artifact-written")
	return path, nil
}

func (r Renderer) fileName(res optimizer.Result) string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return fmt.Sprintf("airfoil-%s-aoa%+.2f.png", now().UTC().Format("20060102-150405"), res.AngleOfAttack)
}
