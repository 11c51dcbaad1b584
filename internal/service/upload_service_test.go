package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/apperr"
	"github.com/maheshrc27/shortspipe/internal/models"
	"github.com/maheshrc27/shortspipe/internal/repository"
	"github.com/maheshrc27/shortspipe/internal/transfer"
)

// Mock implementations

type MockMixerService struct {
	mock.Mock
}

func (m *MockMixerService) Mix(ctx context.Context, videoPath, soundPath, preset string) (string, error) {
	args := m.Called(ctx, videoPath, soundPath, preset)
	return args.String(0), args.Error(1)
}

type MockYoutubeService struct {
	mock.Mock
}

func (m *MockYoutubeService) UploadVideo(ctx context.Context, accessToken, videoPath, title, description string, tags []string) (string, error) {
	args := m.Called(ctx, accessToken, videoPath, title, description, tags)
	return args.String(0), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) AccessToken(ctx context.Context, name string, account *models.Account) (string, error) {
	args := m.Called(ctx, name, account)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ForceRefresh(ctx context.Context, name string) (string, time.Time, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// mp4Header is the smallest byte sequence the filetype sniffer accepts as an
// MP4 video.
func mp4Header() []byte {
	head := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}
	return append(head, bytes.Repeat([]byte{0x00}, 300)...)
}

func videoFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("video", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["video"][0]
}

type uploadFixture struct {
	svc   UploadService
	cfg   config.Config
	mixer *MockMixerService
	yt    *MockYoutubeService
	auth  *MockAuthService
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	uploadDir := t.TempDir()
	soundsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(soundsDir, "Chill Beat.mp3"), []byte("sound"), 0o600))

	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alice":{"client_id":"id","client_secret":"secret","refresh_token":"rt","token":"None"}}`), 0o600))

	cfg := config.Config{
		UploadDir: uploadDir,
		SoundsDir: soundsDir,
	}

	mixer := new(MockMixerService)
	yt := new(MockYoutubeService)
	auth := new(MockAuthService)

	return &uploadFixture{
		svc:   NewUploadService(cfg, repository.NewAccountRepository(path), auth, mixer, yt),
		cfg:   cfg,
		mixer: mixer,
		yt:    yt,
		auth:  auth,
	}
}

func (f *uploadFixture) scratchFiles(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(f.cfg.UploadDir)
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("no_sound_skips_mixer_and_uploads_staged_file", func(t *testing.T) {
		f := newUploadFixture(t)

		f.auth.On("AccessToken", mock.Anything, "alice", mock.Anything).Return("token", nil)
		f.yt.On("UploadVideo", mock.Anything, "token",
			mock.MatchedBy(func(path string) bool {
				// The staged temp file itself is handed to the uploader and
				// still exists at upload time.
				_, err := os.Stat(path)
				return err == nil && filepath.Dir(path) == f.cfg.UploadDir
			}),
			"My clip #Shorts", "", []string(nil)).Return("vid123", nil)

		result, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
			Description: "My clip",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.NoError(t, err)
		assert.Equal(t, "vid123", result.VideoID)
		assert.Equal(t, "https://youtube.com/shorts/vid123", result.URL)

		f.mixer.AssertNotCalled(t, "Mix", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.scratchFiles(t), "all temp artifacts must be released")
	})

	t.Run("sound_resolves_case_insensitively_and_mixed_output_is_uploaded", func(t *testing.T) {
		f := newUploadFixture(t)

		mixedPath := filepath.Join(f.cfg.UploadDir, "output_mixed.mp4")
		expectedSound := filepath.Join(f.cfg.SoundsDir, "Chill Beat.mp3")

		f.mixer.On("Mix", mock.Anything, mock.Anything, expectedSound, "background").
			Run(func(args mock.Arguments) {
				require.NoError(t, os.WriteFile(mixedPath, []byte("muxed"), 0o600))
			}).Return(mixedPath, nil)
		f.auth.On("AccessToken", mock.Anything, "alice", mock.Anything).Return("token", nil)
		f.yt.On("UploadVideo", mock.Anything, "token", mixedPath,
			mock.Anything, mock.Anything, mock.Anything).Return("vid456", nil)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
			Description: "Clip with music",
			SoundName:   `"chill beat"`,
			SoundVolume: "background",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.NoError(t, err)
		f.mixer.AssertExpectations(t)
		assert.Empty(t, f.scratchFiles(t), "both staged and mixed artifacts must be released")
	})

	t.Run("unknown_sound_name", func(t *testing.T) {
		f := newUploadFixture(t)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
			SoundName:   "does-not-exist",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindSoundNotFound, apperr.KindOf(err))
		assert.Empty(t, f.scratchFiles(t))
	})

	t.Run("unknown_account", func(t *testing.T) {
		f := newUploadFixture(t)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "bob",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindAccountNotFound, apperr.KindOf(err))
	})

	t.Run("disallowed_extension", func(t *testing.T) {
		f := newUploadFixture(t)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
		}, videoFileHeader(t, "clip.avi", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("missing_account_name", func(t *testing.T) {
		f := newUploadFixture(t)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{},
			videoFileHeader(t, "clip.mp4", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("non_video_content_is_rejected", func(t *testing.T) {
		f := newUploadFixture(t)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
		}, videoFileHeader(t, "clip.mp4", []byte("definitely not a video at all, just text")))

		require.Error(t, err)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		assert.Empty(t, f.scratchFiles(t))
	})

	t.Run("upload_failure_still_releases_temp_artifacts", func(t *testing.T) {
		f := newUploadFixture(t)

		f.auth.On("AccessToken", mock.Anything, "alice", mock.Anything).Return("token", nil)
		f.yt.On("UploadVideo", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything).
			Return("", apperr.New(apperr.KindRemoteUploadFailed, "quota exceeded"))

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindRemoteUploadFailed, apperr.KindOf(err))
		assert.Empty(t, f.scratchFiles(t))
	})

	t.Run("refresh_failure_aborts_before_upload", func(t *testing.T) {
		f := newUploadFixture(t)

		f.auth.On("AccessToken", mock.Anything, "alice", mock.Anything).
			Return("", apperr.New(apperr.KindReauthRequired, "re-auth needed"))

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.Error(t, err)
		assert.Equal(t, apperr.KindReauthRequired, apperr.KindOf(err))
		f.yt.AssertNotCalled(t, "UploadVideo", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.scratchFiles(t))
	})

	t.Run("truncated_title_moves_full_text_to_description", func(t *testing.T) {
		f := newUploadFixture(t)

		longDescription := "this raw description is long enough that word boundary truncation will certainly drop some of its trailing words from the title"

		f.auth.On("AccessToken", mock.Anything, "alice", mock.Anything).Return("token", nil)
		f.yt.On("UploadVideo", mock.Anything, "token", mock.Anything,
			mock.MatchedBy(func(title string) bool { return len(title) <= 100 }),
			longDescription, []string{"tag"}).Return("vid789", nil)

		_, err := f.svc.Upload(ctx, &transfer.UploadRequest{
			AccountName: "alice",
			Description: longDescription,
			Hashtags:    []string{"tag"},
		}, videoFileHeader(t, "clip.mp4", mp4Header()))

		require.NoError(t, err)
		f.yt.AssertExpectations(t)
	})
}
