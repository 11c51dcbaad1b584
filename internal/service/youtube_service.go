package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/apperr"
)

const videoCategoryPeopleBlogs = "22"

type YoutubeService interface {
	UploadVideo(ctx context.Context, accessToken, videoPath, title, description string, tags []string) (string, error)
}

type youtubeService struct {
	cfg config.Config
}

func NewYoutubeService(cfg config.Config) YoutubeService {
	return &youtubeService{cfg: cfg}
}

// UploadVideo pushes the file to YouTube as a resumable chunked upload and
// returns the new video ID. Each chunk is retried internally by the client
// library; we only see the final response.
func (s *youtubeService) UploadVideo(ctx context.Context, accessToken, videoPath, title, description string, tags []string) (string, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Error("error creating YouTube service", "error", err)
		return "", apperr.Wrap(apperr.KindRemoteUploadFailed, "error creating YouTube client", err)
	}

	file, err := os.Open(videoPath)
	if err != nil {
		slog.Error("error opening video file", "path", videoPath, "error", err)
		return "", apperr.Wrap(apperr.KindRemoteUploadFailed, "error opening video file", err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			Tags:        tags,
			CategoryId:  videoCategoryPeopleBlogs,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file, googleapi.ChunkSize(s.cfg.UploadChunkSize)).
		ProgressUpdater(func(current, total int64) {
			if total > 0 {
				slog.Info("upload progress", "percent", int(current*100/total))
			}
		})

	response, err := call.Context(ctx).Do()
	if err != nil {
		return "", uploadError(err)
	}

	slog.Info("video uploaded", "video_id", response.Id)
	return response.Id, nil
}

// uploadError surfaces the remote API's own reason and message when the
// failure is a parseable googleapi error, else a generic one.
func uploadError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		reason := ""
		if len(gerr.Errors) > 0 {
			reason = gerr.Errors[0].Reason
		}
		slog.Error("error uploading to YouTube", "reason", reason, "message", gerr.Message)
		return apperr.Wrap(apperr.KindRemoteUploadFailed,
			fmt.Sprintf("error uploading to YouTube: %s: %s", reason, gerr.Message), err)
	}

	slog.Error("error uploading to YouTube", "error", err)
	return apperr.Wrap(apperr.KindRemoteUploadFailed, "error uploading to YouTube", err)
}
