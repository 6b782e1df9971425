// Package prefs persists foilwatch user preferences: the UI theme and the
// last job submitted from the form, so the next launch starts where the
// previous one left off. Preferences live in ~/.config/foilwatch/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/foilwatch/internal/optimizer"
)

// Prefs holds user preferences for foilwatch.
type Prefs struct {
	Theme        string `toml:"theme"`
	SolutionType int    `toml:"solution_type"`
	Velocity     int    `toml:"velocity"`
}

const (
	defaultPrefsPath = "~/.config/foilwatch/prefs.toml"
	defaultTheme     = "Dracula"
	defaultVelocity  = 30
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used on first launch.
func Defaults() Prefs {
	return Prefs{
		Theme:        defaultTheme,
		SolutionType: int(optimizer.Cruise),
		Velocity:     defaultVelocity,
	}
}

// Request returns the remembered job as a request for the form.
func (p Prefs) Request() optimizer.JobRequest {
	return optimizer.JobRequest{
		SolutionType: optimizer.SolutionType(p.SolutionType),
		Velocity:     p.Velocity,
	}
}

// Remember records req as the last submitted job.
func (p *Prefs) Remember(req optimizer.JobRequest) {
	p.SolutionType = int(req.SolutionType)
	p.Velocity = req.Velocity
}

// Load reads preferences from the given path, falling back to defaults if missing.
// Unreadable or corrupt files degrade to defaults rather than failing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil
	}

	return normalize(prefs), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(normalize(p))
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func normalize(p Prefs) Prefs {
	def := Defaults()
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = def.Theme
	}
	if !optimizer.SolutionType(p.SolutionType).Valid() {
		p.SolutionType = def.SolutionType
	}
	if p.Velocity <= 0 {
		p.Velocity = def.Velocity
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
