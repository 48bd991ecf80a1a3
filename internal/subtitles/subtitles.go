// Package subtitles materializes ASS subtitle documents submitted with export
// jobs. Documents arrive base64-encoded and embed their font as a base64 blob
// in the [Fonts] section; the font must be extracted to a directory the ffmpeg
// ass filter can load from.
package subtitles

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNoFontData is returned when the subtitle document has no embedded font.
var ErrNoFontData = errors.New("subtitles: no embedded font data found")

var fontDataPattern = regexp.MustCompile(`data: (.+)`)

// Materialize decodes a base64 subtitle payload into dir and extracts the
// embedded font next to it. It returns the subtitle path and the fonts
// directory to hand to ffmpeg.
func Materialize(payload string, dir string) (assPath string, fontsDir string, err error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("subtitles: decode payload: %w", err)
	}

	assPath = filepath.Join(dir, "subtitles.ass")
	if err := os.WriteFile(assPath, raw, 0o644); err != nil {
		return "", "", fmt.Errorf("subtitles: write document: %w", err)
	}

	fontsDir = filepath.Join(dir, "fonts")
	if err := os.MkdirAll(fontsDir, 0o755); err != nil {
		return "", "", fmt.Errorf("subtitles: create fonts dir: %w", err)
	}
	if err := extractFont(raw, fontsDir); err != nil {
		return "", "", err
	}
	return assPath, fontsDir, nil
}

// extractFont pulls the first embedded base64 font blob out of the document
// and writes it as a TTF file ffmpeg can resolve via fontsdir.
func extractFont(document []byte, fontsDir string) error {
	match := fontDataPattern.FindSubmatch(document)
	if match == nil {
		return ErrNoFontData
	}
	font, err := base64.StdEncoding.DecodeString(string(match[1]))
	if err != nil {
		return fmt.Errorf("subtitles: decode font data: %w", err)
	}
	target := filepath.Join(fontsDir, "embedded.ttf")
	if err := os.WriteFile(target, font, 0o644); err != nil {
		return fmt.Errorf("subtitles: write font: %w", err)
	}
	return nil
}
