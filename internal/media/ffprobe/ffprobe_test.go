package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	video, ok := result.FirstVideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", video.Width, video.Height)
	}
	if fps := video.FrameRate(); math.Abs(fps-29.97) > 0.001 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestFrameRateEdgeCases(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"0/0":     0,
		"25":      25,
		"24/1":    24,
		"garbage": 0,
		"30/zero": 0,
		"60000/0": 0,
	}
	for raw, want := range cases {
		stream := Stream{AvgFrameRate: raw}
		if got := stream.FrameRate(); got != want {
			t.Fatalf("FrameRate(%q) = %v, want %v", raw, got, want)
		}
	}
}
