package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/apperr"
)

type volumePreset struct {
	Video string
	Sound string
}

var volumePresets = map[string]volumePreset{
	"mix":        {"0.5", "0.5"},
	"background": {"0.9", "0.1"},
	"main":       {"0.2", "0.8"},
}

const defaultPreset = "mix"

type MixerService interface {
	Mix(ctx context.Context, videoPath, soundPath, preset string) (string, error)
}

type mixerService struct {
	cfg config.Config
}

func NewMixerService(cfg config.Config) MixerService {
	return &mixerService{cfg: cfg}
}

// Mix muxes the sound file into the video's audio track using the named
// volume preset and returns the path of a freshly written output file. The
// caller owns the returned file and is responsible for deleting it.
func (s *mixerService) Mix(ctx context.Context, videoPath, soundPath, preset string) (string, error) {
	vols, ok := volumePresets[preset]
	if !ok {
		vols = volumePresets[defaultPreset]
	}

	if _, err := os.Stat(videoPath); err != nil {
		return "", apperr.Wrap(apperr.KindInputNotFound, fmt.Sprintf("video file not found: %s", videoPath), err)
	}
	if _, err := os.Stat(soundPath); err != nil {
		return "", apperr.Wrap(apperr.KindInputNotFound, fmt.Sprintf("sound file not found: %s", soundPath), err)
	}

	if err := s.probe(ctx, videoPath); err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	outputPath := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("output_%s.mp4", id))

	filter := fmt.Sprintf("[0:a]volume=%s[a1];[1:a]volume=%s[a2];[a1][a2]amix=inputs=2:duration=first[aout]",
		vols.Video, vols.Sound)

	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath,
		"-y",
		"-i", videoPath,
		"-i", soundPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("ffmpeg failed", "error", err, "stderr", stderr.String())
		removeIfExists(outputPath)
		return "", apperr.Wrap(apperr.KindProcessingFailed, "failed to process video: "+stderr.String(), err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		removeIfExists(outputPath)
		return "", apperr.New(apperr.KindProcessingFailed, "ffmpeg produced no output")
	}

	return outputPath, nil
}

// probe runs a decode-only pass over the input so corrupt files are rejected
// before the expensive transcode.
func (s *mixerService) probe(ctx context.Context, videoPath string) error {
	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath,
		"-v", "error",
		"-i", videoPath,
		"-f", "null", "-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("input video failed validation", "stderr", stderr.String())
		return apperr.Wrap(apperr.KindInvalidMedia, "the input video file appears to be corrupted or invalid", err)
	}
	return nil
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("unable to remove partial output", "path", path, "error", err)
	}
}
