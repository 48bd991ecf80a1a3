package ffmpeg

import (
	"reflect"
	"strings"
	"testing"
)

func TestTrimArgsStandardWindow(t *testing.T) {
	args, err := TrimArgs(TrimSpec{
		Input:  "in.mp4",
		Output: "out.mp4",
		Start:  1.5,
		End:    4.25,
		FPS:    25,
	})
	if err != nil {
		t.Fatalf("TrimArgs: %v", err)
	}
	want := []string{
		"-y",
		"-ss", "1.500000",
		"-i", "in.mp4",
		"-t", "2.750000",
		"-c:v", "libx264",
		"-crf", "18",
		"-preset", "ultrafast",
		"-c:a", "copy",
		"out.mp4",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestTrimArgsSubFrameWindowExportsSingleFrame(t *testing.T) {
	args, err := TrimArgs(TrimSpec{
		Input:  "in.mp4",
		Output: "out.mp4",
		Start:  2,
		End:    2.01,
		FPS:    25,
	})
	if err != nil {
		t.Fatalf("TrimArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-frames:v 1") {
		t.Fatalf("expected single frame export, got %v", args)
	}
	if !strings.Contains(joined, "select='eq(n,0)'") {
		t.Fatalf("expected first-frame select filter, got %v", args)
	}
	if !strings.Contains(joined, "-an") {
		t.Fatalf("single frame export must drop audio, got %v", args)
	}
}

func TestTrimArgsNoAudio(t *testing.T) {
	args, err := TrimArgs(TrimSpec{Input: "in.mp4", Output: "out.mp4", Start: 0, End: 5, NoAudio: true})
	if err != nil {
		t.Fatalf("TrimArgs: %v", err)
	}
	if args[len(args)-1] != "out.mp4" || args[len(args)-2] != "-an" {
		t.Fatalf("expected -an before output, got %v", args)
	}
}

func TestTrimArgsRejectsEmptyWindow(t *testing.T) {
	if _, err := TrimArgs(TrimSpec{Start: 5, End: 5}); err == nil {
		t.Fatal("expected error for zero-length window")
	}
}

func TestFitArgsWideSource(t *testing.T) {
	args, err := FitArgs(FitSpec{
		Input:        "scene.mp4",
		Output:       "fit.mp4",
		SourceWidth:  1920,
		SourceHeight: 1080,
		AspectWidth:  9,
		AspectHeight: 16,
	})
	if err != nil {
		t.Fatalf("FitArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	// 1080 * 9/16 = 607.5 -> 608 even.
	if !strings.Contains(joined, "crop=608:1080") {
		t.Fatalf("unexpected crop target: %v", joined)
	}
	if !strings.Contains(joined, "gblur=sigma=10") {
		t.Fatalf("expected blurred background: %v", joined)
	}
	if !strings.Contains(joined, "overlay=(W-w)/2:(H-h)/2") {
		t.Fatalf("expected centered overlay: %v", joined)
	}
}

func TestFitArgsTallSource(t *testing.T) {
	args, err := FitArgs(FitSpec{
		Input:        "scene.mp4",
		Output:       "fit.mp4",
		SourceWidth:  480,
		SourceHeight: 1080,
		AspectWidth:  9,
		AspectHeight: 16,
	})
	if err != nil {
		t.Fatalf("FitArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	// Source is narrower than 9:16 target: keep width, cap height (480 * 16/9 = 853.3 -> 854).
	if !strings.Contains(joined, "crop=480:854") {
		t.Fatalf("unexpected crop target: %v", joined)
	}
}

func TestFillArgsScalesNormalizedBox(t *testing.T) {
	args, err := FillArgs(FillSpec{
		Input:        "scene.mp4",
		Output:       "fill.mp4",
		SourceWidth:  1920,
		SourceHeight: 1080,
		TopLeftX:     0.25,
		TopLeftY:     0.5,
		CropWidth:    0.3,
		CropHeight:   0.25,
	})
	if err != nil {
		t.Fatalf("FillArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	// 0.3*1920=576, 0.25*1080=270 (rounded even to 270); x=480, y=540.
	if !strings.Contains(joined, "crop=w=576:h=270:x=480:y=540") {
		t.Fatalf("unexpected crop filter: %v", joined)
	}
}

func TestConcatArgsWithAudio(t *testing.T) {
	args := ConcatArgs("list.txt", "out.mp4", "audio.aac")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i list.txt") {
		t.Fatalf("unexpected concat input: %v", joined)
	}
	if !strings.Contains(joined, "-i audio.aac -shortest") {
		t.Fatalf("expected audio input before -shortest: %v", joined)
	}
}

func TestBurnSubtitlesArgs(t *testing.T) {
	args := BurnSubtitlesArgs("in.mp4", "subs.ass", "/tmp/fonts", "out.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "ass=subs.ass:fontsdir=/tmp/fonts") {
		t.Fatalf("unexpected subtitle filter: %v", joined)
	}
}

func TestEvenDimension(t *testing.T) {
	cases := map[float64]int{607.5: 608, 608: 608, 1080: 1080, 3: 4, 2.9: 2}
	for in, want := range cases {
		if got := evenDimension(in); got != want {
			t.Fatalf("evenDimension(%v) = %d, want %d", in, got, want)
		}
	}
}
