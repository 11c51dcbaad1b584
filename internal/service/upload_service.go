package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/apperr"
	"github.com/maheshrc27/shortspipe/internal/repository"
	"github.com/maheshrc27/shortspipe/internal/transfer"
	"github.com/maheshrc27/shortspipe/pkg/utils"
)

const maxTitleLength = 100

var allowedExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
}

type UploadService interface {
	Upload(ctx context.Context, req *transfer.UploadRequest, video *multipart.FileHeader) (*transfer.UploadResult, error)
}

type uploadService struct {
	cfg   config.Config
	ar    repository.AccountRepository
	auth  AuthService
	mixer MixerService
	yt    YoutubeService
}

func NewUploadService(
	cfg config.Config,
	ar repository.AccountRepository,
	auth AuthService,
	mixer MixerService,
	yt YoutubeService) UploadService {
	return &uploadService{
		cfg:   cfg,
		ar:    ar,
		auth:  auth,
		mixer: mixer,
		yt:    yt,
	}
}

// tempJob owns every scratch file a single upload request allocates. cleanup
// runs on every exit path and removes each file exactly once, logging rather
// than failing on individual errors.
type tempJob struct {
	paths []string
}

func (j *tempJob) track(path string) {
	j.paths = append(j.paths, path)
}

func (j *tempJob) cleanup() {
	for _, path := range j.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Error("error cleaning up temporary file", "path", path, "error", err)
		}
	}
	j.paths = nil
}

// Upload drives the whole pipeline: validate, stage the video to scratch
// storage, optionally mix in a sound, derive the title, obtain a fresh
// access token and push the result to YouTube.
func (s *uploadService) Upload(ctx context.Context, req *transfer.UploadRequest, video *multipart.FileHeader) (*transfer.UploadResult, error) {
	job := &tempJob{}
	defer job.cleanup()

	ext, err := validateRequest(req, video)
	if err != nil {
		return nil, err
	}

	account, err := s.ar.GetByName(req.AccountName)
	if err != nil {
		return nil, err
	}

	videoPath, err := s.stageVideo(video, ext)
	if err != nil {
		return nil, err
	}
	job.track(videoPath)

	workingPath := videoPath
	if req.SoundName != "" {
		soundPath, err := s.findSoundFile(req.SoundName)
		if err != nil {
			return nil, err
		}

		mixedPath, err := s.mixer.Mix(ctx, videoPath, soundPath, req.SoundVolume)
		if err != nil {
			return nil, err
		}
		job.track(mixedPath)
		workingPath = mixedPath
		slog.Info("audio processing completed", "path", mixedPath)
	}

	tags := utils.CleanHashtags(req.Hashtags)
	title := utils.CleanTitle(req.Description, req.Hashtags, maxTitleLength)
	slog.Info("using video title", "title", title)

	// When the raw description was truncated out of the title, carry the
	// full text in the video description instead.
	description := ""
	if len(req.Description) > len(strings.Split(title, " #Shorts")[0]) {
		description = req.Description
	}

	token, err := s.auth.AccessToken(ctx, req.AccountName, account)
	if err != nil {
		return nil, err
	}

	videoID, err := s.yt.UploadVideo(ctx, token, workingPath, title, description, tags)
	if err != nil {
		return nil, err
	}

	return &transfer.UploadResult{
		VideoID: videoID,
		URL:     fmt.Sprintf("https://youtube.com/shorts/%s", videoID),
	}, nil
}

func validateRequest(req *transfer.UploadRequest, video *multipart.FileHeader) (string, error) {
	if video == nil || video.Filename == "" {
		return "", apperr.New(apperr.KindBadRequest, "no video file provided")
	}

	ext := strings.ToLower(filepath.Ext(video.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperr.New(apperr.KindBadRequest, "invalid file type, allowed types are: mp4, mov")
	}

	if req.AccountName == "" {
		return "", apperr.New(apperr.KindBadRequest, "account name is required")
	}

	return ext, nil
}

// stageVideo persists the uploaded part to a uniquely named file in the
// scratch directory and sniffs its head to reject non-video content early.
func (s *uploadService) stageVideo(video *multipart.FileHeader, ext string) (string, error) {
	src, err := video.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadRequest, "unable to read video file", err)
	}
	defer src.Close()

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("upload_%s%s", id, ext))

	dst, err := os.Create(path)
	if err != nil {
		slog.Error("error saving video file", "error", err)
		return "", fmt.Errorf("error saving video file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		slog.Error("error saving video file", "error", err)
		return "", fmt.Errorf("error saving video file: %w", err)
	}

	head := make([]byte, 261)
	n, err := dst.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		os.Remove(path)
		return "", fmt.Errorf("error reading staged video: %w", err)
	}
	if !filetype.IsVideo(head[:n]) {
		os.Remove(path)
		return "", apperr.New(apperr.KindBadRequest, "uploaded file is not a video")
	}

	slog.Info("video saved temporarily", "path", path)
	return path, nil
}

// findSoundFile resolves a sound name to a file in the sound library by
// case-insensitive, quote-stripped basename match.
func (s *uploadService) findSoundFile(soundName string) (string, error) {
	name := strings.ToLower(strings.Trim(soundName, `'"`))

	entries, err := os.ReadDir(s.cfg.SoundsDir)
	if err != nil {
		slog.Error("error searching for sound file", "dir", s.cfg.SoundsDir, "error", err)
		return "", apperr.Wrap(apperr.KindSoundNotFound, fmt.Sprintf("sound file not found: %s", soundName), err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if base == name {
			return filepath.Join(s.cfg.SoundsDir, entry.Name()), nil
		}
	}

	return "", apperr.New(apperr.KindSoundNotFound, fmt.Sprintf("sound file not found: %s", soundName))
}
