// Package render drives the clip export pipeline: trim the source window,
// extract its audio, re-frame every scene to the target aspect ratio,
// concatenate the renders, and finish the clip with audio and optional burned
// subtitles.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"reframe/internal/config"
	"reframe/internal/fileutil"
	"reframe/internal/logging"
	"reframe/internal/media/ffmpeg"
	"reframe/internal/media/ffprobe"
	"reframe/internal/scenes"
	"reframe/internal/subtitles"
)

// Progress milestones reported while a clip renders.
const (
	ProgressAnalyzed   = 10
	ProgressTrimmed    = 20
	ProgressAudioReady = 30
	ProgressScenesDone = 50
	ProgressAssembled  = 70
	ProgressAudioMuxed = 90
	ProgressFinished   = 100
)

// ProgressFunc receives milestone updates during an export.
type ProgressFunc func(percent float64, message string)

// inspectMedia is stubbed in tests to avoid invoking a real ffprobe binary.
var inspectMedia = ffprobe.Inspect

// runMedia is stubbed in tests to record ffmpeg invocations.
var runMedia = func(ctx context.Context, runner *ffmpeg.Runner, op string, args []string) error {
	return runner.Run(ctx, op, args)
}

// Request describes one clip export.
type Request struct {
	VideoURL         string
	ScenesPath       string
	StartSeconds     float64
	EndSeconds       float64
	SubtitlesPayload string
	// AspectRatio overrides the configured target ratio when set ("W:H").
	AspectRatio string
	// WorkDir holds all intermediate artifacts; the caller owns cleanup.
	WorkDir string
}

// Exporter renders clips to the configured aspect ratio; a request may
// carry its own ratio, which takes precedence.
type Exporter struct {
	runner       *ffmpeg.Runner
	probeBinary  string
	aspectWidth  int
	aspectHeight int
	sceneWorkers int
	logger       *slog.Logger
}

// NewExporter builds an Exporter from configuration.
func NewExporter(cfg *config.Config, logger *slog.Logger) *Exporter {
	workers := cfg.Render.SceneWorkers
	if workers < 1 {
		workers = 1
	}
	return &Exporter{
		runner:       ffmpeg.NewRunner(cfg.Render.FFmpegBinary),
		probeBinary:  cfg.Render.FFprobeBinary,
		aspectWidth:  cfg.Render.AspectWidth,
		aspectHeight: cfg.Render.AspectHeight,
		sceneWorkers: workers,
		logger:       logging.NewComponentLogger(logger, "render"),
	}
}

// Export runs the full pipeline and returns the path of the finished clip
// inside req.WorkDir.
func (e *Exporter) Export(ctx context.Context, req Request, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(float64, string) {}
	}
	if req.EndSeconds <= req.StartSeconds {
		return "", fmt.Errorf("render: end %.3f must be greater than start %.3f", req.EndSeconds, req.StartSeconds)
	}

	probe, err := inspectMedia(ctx, e.probeBinary, req.VideoURL)
	if err != nil {
		return "", fmt.Errorf("render: inspect source: %w", err)
	}
	video, ok := probe.FirstVideoStream()
	if !ok {
		return "", errors.New("render: source has no video stream")
	}
	hasAudio := probe.AudioStreamCount() > 0
	progress(ProgressAnalyzed, "Analyzed source media")

	aspectW, aspectH := e.aspectWidth, e.aspectHeight
	if strings.TrimSpace(req.AspectRatio) != "" {
		aspectW, aspectH, err = parseAspectRatio(req.AspectRatio)
		if err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
	}

	// Windows no longer than one frame export a single still with no audio
	// track, so there is nothing to extract or mux back.
	duration := req.EndSeconds - req.StartSeconds
	singleFrame := video.FrameRate() > 0 && duration <= 1/video.FrameRate()

	sceneList, err := scenes.Load(req.ScenesPath)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	windowed := scenes.Window(sceneList, req.StartSeconds, req.EndSeconds)
	if len(windowed) == 0 {
		return "", fmt.Errorf("render: no scenes overlap window [%.3f, %.3f]", req.StartSeconds, req.EndSeconds)
	}
	rebased := scenes.Rebase(windowed, req.StartSeconds, req.EndSeconds)

	trimmed := filepath.Join(req.WorkDir, "trimmed.mp4")
	trimArgs, err := ffmpeg.TrimArgs(ffmpeg.TrimSpec{
		Input:  req.VideoURL,
		Output: trimmed,
		Start:  req.StartSeconds,
		End:    req.EndSeconds,
		FPS:    video.FrameRate(),
	})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	if err := runMedia(ctx, e.runner, "trim window", trimArgs); err != nil {
		return "", err
	}
	progress(ProgressTrimmed, "Trimmed source window")

	audioPath := ""
	if hasAudio && !singleFrame {
		audioPath = filepath.Join(req.WorkDir, "audio.m4a")
		if err := runMedia(ctx, e.runner, "extract audio", ffmpeg.ExtractAudioArgs(trimmed, audioPath)); err != nil {
			return "", err
		}
	}
	progress(ProgressAudioReady, "Extracted audio track")

	segmentPaths, err := e.renderScenes(ctx, trimmed, rebased, video, aspectW, aspectH, req.WorkDir)
	if err != nil {
		return "", err
	}
	progress(ProgressScenesDone, "Rendered scenes")

	assembled := filepath.Join(req.WorkDir, "assembled.mp4")
	listPath, err := writeConcatList(req.WorkDir, segmentPaths)
	if err != nil {
		return "", err
	}
	if err := runMedia(ctx, e.runner, "concat scenes", ffmpeg.ConcatArgs(listPath, assembled, "")); err != nil {
		return "", err
	}
	progress(ProgressAssembled, "Assembled clip")

	// Re-encoded segments can drift by a frame or two; a final trim pins the
	// clip to the requested window length.
	normalized := filepath.Join(req.WorkDir, "normalized.mp4")
	normalizeArgs, err := ffmpeg.TrimArgs(ffmpeg.TrimSpec{
		Input:   assembled,
		Output:  normalized,
		Start:   0,
		End:     req.EndSeconds - req.StartSeconds,
		FPS:     video.FrameRate(),
		NoAudio: true,
	})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	if err := runMedia(ctx, e.runner, "normalize duration", normalizeArgs); err != nil {
		return "", err
	}

	muxed := normalized
	if audioPath != "" {
		muxed = filepath.Join(req.WorkDir, "muxed.mp4")
		if err := runMedia(ctx, e.runner, "attach audio", ffmpeg.AttachAudioArgs(normalized, audioPath, muxed)); err != nil {
			return "", err
		}
	}
	progress(ProgressAudioMuxed, "Attached audio")

	output := filepath.Join(req.WorkDir, "output.mp4")
	if strings.TrimSpace(req.SubtitlesPayload) != "" {
		assPath, fontsDir, err := subtitles.Materialize(req.SubtitlesPayload, req.WorkDir)
		if err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
		if err := runMedia(ctx, e.runner, "burn subtitles", ffmpeg.BurnSubtitlesArgs(muxed, assPath, fontsDir, output)); err != nil {
			return "", err
		}
	} else if err := fileutil.CopyFileVerified(muxed, output); err != nil {
		return "", fmt.Errorf("render: finalize clip: %w", err)
	}
	progress(ProgressFinished, "Export complete")

	e.logger.InfoContext(ctx, "rendered clip",
		logging.Int("scenes", len(rebased)),
		logging.String("output", output),
	)
	return output, nil
}

// renderScenes re-frames every scene concurrently with a bounded worker pool.
// Segment order follows the scene order regardless of completion order.
func (e *Exporter) renderScenes(ctx context.Context, trimmed string, list []scenes.Scene, video ffprobe.Stream, aspectW, aspectH int, workDir string) ([]string, error) {
	segments := make([]string, len(list))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, e.sceneWorkers)

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i, scene := range list {
		wg.Add(1)
		go func(index int, scene scenes.Scene) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed || ctx.Err() != nil {
				return
			}

			segment, err := e.renderScene(ctx, trimmed, scene, index, video, aspectW, aspectH, workDir)
			if err != nil {
				setErr(err)
				return
			}
			segments[index] = segment
		}(i, scene)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (e *Exporter) renderScene(ctx context.Context, trimmed string, scene scenes.Scene, index int, video ffprobe.Stream, aspectW, aspectH int, workDir string) (string, error) {
	segment := filepath.Join(workDir, fmt.Sprintf("scene_%03d.mp4", index))
	trimArgs, err := ffmpeg.TrimArgs(ffmpeg.TrimSpec{
		Input:   trimmed,
		Output:  segment,
		Start:   scene.StartTime,
		End:     scene.EndTime,
		FPS:     video.FrameRate(),
		NoAudio: true,
	})
	if err != nil {
		return "", fmt.Errorf("render: scene %d: %w", index, err)
	}
	if err := runMedia(ctx, e.runner, fmt.Sprintf("trim scene %d", index), trimArgs); err != nil {
		return "", err
	}

	rendered := filepath.Join(workDir, fmt.Sprintf("render_%03d.mp4", index))
	var args []string
	switch scene.Type {
	case scenes.KindFill:
		args, err = ffmpeg.FillArgs(ffmpeg.FillSpec{
			Input:        segment,
			Output:       rendered,
			SourceWidth:  video.Width,
			SourceHeight: video.Height,
			TopLeftX:     scene.TopLeft[0],
			TopLeftY:     scene.TopLeft[1],
			CropWidth:    scene.CropWidth,
			CropHeight:   scene.CropHeight,
		})
	case scenes.KindFit:
		args, err = ffmpeg.FitArgs(ffmpeg.FitSpec{
			Input:        segment,
			Output:       rendered,
			SourceWidth:  video.Width,
			SourceHeight: video.Height,
			AspectWidth:  aspectW,
			AspectHeight: aspectH,
		})
	default:
		return "", fmt.Errorf("render: scene %d: unknown type %q", index, scene.Type)
	}
	if err != nil {
		return "", fmt.Errorf("render: scene %d: %w", index, err)
	}
	if err := runMedia(ctx, e.runner, fmt.Sprintf("render scene %d", index), args); err != nil {
		return "", err
	}
	return rendered, nil
}

// parseAspectRatio splits a "W:H" ratio into positive integer components.
func parseAspectRatio(value string) (int, int, error) {
	widthStr, heightStr, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("aspect ratio %q must use the W:H form", value)
	}
	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("aspect ratio %q width must be a positive integer", value)
	}
	height, err := strconv.Atoi(heightStr)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("aspect ratio %q height must be a positive integer", value)
	}
	return width, height, nil
}

// writeConcatList writes the concat-demuxer manifest referencing the rendered
// segments in order.
func writeConcatList(workDir string, segments []string) (string, error) {
	var builder strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&builder, "file '%s'\n", segment)
	}
	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(builder.String()), 0o644); err != nil {
		return "", fmt.Errorf("render: write concat list: %w", err)
	}
	return listPath, nil
}
