// Package scenes models the scene documents that drive clip re-framing: an
// ordered list of time ranges, each carrying either a tracked crop box
// ("fill") or a letterbox treatment ("fit").
package scenes

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Scene kinds.
const (
	KindFill = "fill"
	KindFit  = "fit"
)

// Scene is one entry of a scene document. TopLeft and the crop dimensions are
// normalized to [0, 1] relative to the source frame; they are only meaningful
// for fill scenes.
type Scene struct {
	Type       string     `json:"type"`
	StartTime  float64    `json:"start_time"`
	EndTime    float64    `json:"end_time"`
	TopLeft    [2]float64 `json:"top_left"`
	CropWidth  float64    `json:"crop_width"`
	CropHeight float64    `json:"crop_height"`
}

// Duration returns the scene length in seconds.
func (s Scene) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Parse decodes and validates a scene document.
func Parse(r io.Reader) ([]Scene, error) {
	var list []Scene
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	for i, scene := range list {
		switch strings.TrimSpace(scene.Type) {
		case KindFill:
			if scene.CropWidth <= 0 || scene.CropHeight <= 0 {
				return nil, fmt.Errorf("scene %d: fill scene missing crop dimensions", i)
			}
		case KindFit:
		default:
			return nil, fmt.Errorf("scene %d: unknown scene type %q", i, scene.Type)
		}
		if scene.EndTime < scene.StartTime {
			return nil, fmt.Errorf("scene %d: end_time %.3f precedes start_time %.3f", i, scene.EndTime, scene.StartTime)
		}
	}
	return list, nil
}

// Load reads and parses the scene document at path.
func Load(path string) ([]Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenes: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Window keeps the scenes overlapping [start, end], preserving order. A scene
// overlaps when it neither ends before the window opens nor starts after it
// closes.
func Window(list []Scene, start, end float64) []Scene {
	filtered := make([]Scene, 0, len(list))
	for _, scene := range list {
		if scene.EndTime < start || scene.StartTime > end {
			continue
		}
		filtered = append(filtered, scene)
	}
	return filtered
}

// Rebase shifts windowed scenes onto a clip-local timeline: times are offset
// by start and clamped at zero, the first scene is pinned to 0, and the last
// scene is pinned to the window length.
func Rebase(list []Scene, start, end float64) []Scene {
	if len(list) == 0 {
		return list
	}
	rebased := make([]Scene, len(list))
	copy(rebased, list)
	for i := range rebased {
		rebased[i].StartTime = max(rebased[i].StartTime-start, 0)
		rebased[i].EndTime = max(rebased[i].EndTime-start, 0)
	}
	rebased[0].StartTime = 0
	rebased[len(rebased)-1].EndTime = end - start
	return rebased
}
