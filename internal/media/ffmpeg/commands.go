package ffmpeg

import (
	"errors"
	"fmt"
	"math"
)

// Encoding constants match the clip pipeline's fixed quality targets: trims
// keep slightly more headroom (18) than scene renders and concats (17).
const (
	trimCRF  = "18"
	sceneCRF = "17"
	preset   = "ultrafast"
)

// TrimSpec describes a window trim of the source clip.
type TrimSpec struct {
	Input  string
	Output string
	Start  float64
	End    float64
	// FPS bounds the shortest representable clip; windows no longer than one
	// frame degrade to a single-frame export.
	FPS     float64
	NoAudio bool
}

// TrimArgs builds the argument list for a window trim.
func TrimArgs(spec TrimSpec) ([]string, error) {
	duration := spec.End - spec.Start
	if duration <= 0 {
		return nil, errors.New("ffmpeg trim: end must be greater than start")
	}

	var frameDuration float64
	if spec.FPS > 0 {
		frameDuration = 1 / spec.FPS
	}

	var args []string
	if frameDuration > 0 && duration <= frameDuration {
		args = []string{
			"-y",
			"-i", spec.Input,
			"-ss", formatSeconds(spec.Start),
			"-vf", "select='eq(n,0)',setpts=PTS-STARTPTS",
			"-frames:v", "1",
			"-c:v", "libx264",
			"-crf", trimCRF,
			"-an",
		}
	} else {
		args = []string{
			"-y",
			"-ss", formatSeconds(spec.Start),
			"-i", spec.Input,
			"-t", formatSeconds(duration),
			"-c:v", "libx264",
			"-crf", trimCRF,
			"-preset", preset,
			"-c:a", "copy",
		}
		if spec.NoAudio {
			args = append(args, "-an")
		}
	}
	return append(args, spec.Output), nil
}

// ExtractAudioArgs builds the argument list for pulling the audio track out of
// a clip.
func ExtractAudioArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-vn", output}
}

// AttachAudioArgs builds the argument list for muxing an audio track back onto
// a rendered clip without re-encoding.
func AttachAudioArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "copy",
		"-shortest",
		output,
	}
}

// FitSpec describes a blurred-background letterbox render for a scene that
// should be shown in full within the target aspect ratio.
type FitSpec struct {
	Input        string
	Output       string
	SourceWidth  int
	SourceHeight int
	AspectWidth  int
	AspectHeight int
}

// FitArgs builds the filter graph that scales a blurred copy of the frame to
// fill the target aspect and overlays the full frame centered on top.
func FitArgs(spec FitSpec) ([]string, error) {
	if spec.SourceWidth <= 0 || spec.SourceHeight <= 0 {
		return nil, fmt.Errorf("ffmpeg fit: invalid source dimensions %dx%d", spec.SourceWidth, spec.SourceHeight)
	}
	if spec.AspectWidth <= 0 || spec.AspectHeight <= 0 {
		return nil, fmt.Errorf("ffmpeg fit: invalid aspect ratio %d:%d", spec.AspectWidth, spec.AspectHeight)
	}

	srcW := float64(spec.SourceWidth)
	srcH := float64(spec.SourceHeight)
	aspect := float64(spec.AspectWidth) / float64(spec.AspectHeight)

	var outW, outH float64
	if srcW/srcH > aspect {
		outW = srcH * aspect
		outH = srcH
	} else {
		outW = srcW
		outH = srcW / aspect
	}
	width := evenDimension(outW)
	height := evenDimension(outH)

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d,gblur=sigma=10,crop=%d:%d,setsar=1/1[b];"+
			"[1:v]scale=%d:-2,setsar=1[f];"+
			"[b][f]overlay=(W-w)/2:(H-h)/2:enable=1,format=rgba,colorchannelmixer=aa=0.9",
		spec.SourceWidth, spec.SourceHeight, width, height, width,
	)

	return []string{
		"-y",
		"-i", spec.Input,
		"-i", spec.Input,
		"-filter_complex", filter,
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", sceneCRF,
		"-an",
		spec.Output,
	}, nil
}

// FillSpec describes a bounding-box crop render. Coordinates and crop sizes
// are normalized to [0, 1] relative to the source frame.
type FillSpec struct {
	Input        string
	Output       string
	SourceWidth  int
	SourceHeight int
	TopLeftX     float64
	TopLeftY     float64
	CropWidth    float64
	CropHeight   float64
}

// FillArgs builds the crop filter for a tracked bounding box scene.
func FillArgs(spec FillSpec) ([]string, error) {
	if spec.SourceWidth <= 0 || spec.SourceHeight <= 0 {
		return nil, fmt.Errorf("ffmpeg fill: invalid source dimensions %dx%d", spec.SourceWidth, spec.SourceHeight)
	}
	if spec.CropWidth <= 0 || spec.CropHeight <= 0 {
		return nil, fmt.Errorf("ffmpeg fill: invalid crop %fx%f", spec.CropWidth, spec.CropHeight)
	}

	x := spec.TopLeftX * float64(spec.SourceWidth)
	y := spec.TopLeftY * float64(spec.SourceHeight)
	width := evenDimension(spec.CropWidth * float64(spec.SourceWidth))
	height := evenDimension(spec.CropHeight * float64(spec.SourceHeight))

	filter := fmt.Sprintf(
		"scale=w=%d:h=%d,setsar=1/1,crop=w=%d:h=%d:x=%s:y=%s",
		spec.SourceWidth, spec.SourceHeight, width, height,
		formatCoordinate(x), formatCoordinate(y),
	)

	return []string{
		"-y",
		"-ss", "0",
		"-i", spec.Input,
		"-vf", filter,
		"-preset", preset,
		"-c:v", "libx264",
		"-crf", sceneCRF,
		spec.Output,
	}, nil
}

// ConcatArgs builds the concat-demuxer invocation joining rendered scenes
// listed in listPath. An optional audio input is muxed with -shortest.
func ConcatArgs(listPath, output, audioPath string) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
	}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	return append(args,
		"-shortest",
		"-c:v", "libx264",
		"-crf", sceneCRF,
		output,
	)
}

// BurnSubtitlesArgs builds the ass-filter invocation that burns subtitles into
// the clip using fonts from fontsDir.
func BurnSubtitlesArgs(input, assPath, fontsDir, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vf", fmt.Sprintf("ass=%s:fontsdir=%s", assPath, fontsDir),
		"-c:v", "libx264",
		"-crf", trimCRF,
		output,
	}
}

func formatSeconds(value float64) string {
	return fmt.Sprintf("%.6f", value)
}

func formatCoordinate(value float64) string {
	return fmt.Sprintf("%g", value)
}

// evenDimension rounds to the nearest even integer; libx264 rejects odd frame
// dimensions.
func evenDimension(value float64) int {
	return int(math.Round(value/2)) * 2
}
