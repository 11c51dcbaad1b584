package transfer

// UploadRequest carries the multipart form fields of POST /upload.
type UploadRequest struct {
	AccountName string
	Description string
	Hashtags    []string
	SoundName   string
	SoundVolume string
}

type UploadResult struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

type RefreshTokenRequest struct {
	AccountName string `json:"accountname"`
}

// AccountInfo is the sanitized view returned by GET /check-account. It
// carries presence flags only, never the secret values.
type AccountInfo struct {
	Account         string   `json:"account"`
	HasToken        bool     `json:"has_token"`
	HasRefreshToken bool     `json:"has_refresh_token"`
	TokenExpiry     string   `json:"token_expiry,omitempty"`
	ChannelTitle    string   `json:"channel_title"`
	Scopes          []string `json:"scopes"`
}
