package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"PlateBot/internal/ports"
)

const watermark = "https://github.com/SpiritAxolotl/ca-dmv-bot"

// plateSVG mimics the classic plate layout: dark blue embossed text on a
// white base with a faint repository watermark in the corner.
const plateSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="1280" height="720" viewBox="0 0 1280 720">
  <rect width="1280" height="720" rx="48" fill="#FFFFFF" stroke="#1F2A64" stroke-width="12"/>
  <text x="640" y="430" font-family="monospace" font-size="240" font-weight="bold" fill="#1F2A64" text-anchor="middle" letter-spacing="12">%s</text>
  <text x="1255" y="695" font-family="monospace" font-size="20" fill="#00000032" text-anchor="end">%s</text>
</svg>
`

// SVGRenderer draws plate artifacts as standalone SVG files in a temp dir.
type SVGRenderer struct {
	tmpDir string
}

var _ ports.Renderer = (*SVGRenderer)(nil)

// NewSVG builds a renderer writing artifacts under tmpDir.
func NewSVG(tmpDir string) *SVGRenderer {
	return &SVGRenderer{tmpDir: tmpDir}
}

// Render writes one artifact for the plate text and returns its path. Each
// call produces a fresh file; candidates never share artifacts.
func (r *SVGRenderer) Render(_ context.Context, text string) (string, error) {
	if err := os.MkdirAll(r.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	path := filepath.Join(r.tmpDir, uuid.NewString()+".svg")
	content := fmt.Sprintf(plateSVG, html.EscapeString(text), html.EscapeString(watermark))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	return path, nil
}

// Remove deletes an artifact. A missing file is not an error; the artifact
// is gone either way.
func (r *SVGRenderer) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}
