package models

// Account is one onboarded YouTube identity from the accounts file. The
// access token may be stale, empty, or the literal string "None" (written by
// older onboarding runs); callers must go through the auth service instead of
// trusting it directly.
type Account struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RefreshToken string   `json:"refresh_token"`
	Token        string   `json:"token"`
	TokenURI     string   `json:"token_uri,omitempty"`
	TokenExpiry  string   `json:"token_expiry,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	ChannelTitle string   `json:"channel_title,omitempty"`
}

// HasToken reports whether a stored access token is present at all,
// treating the "None" sentinel as absent.
func (a *Account) HasToken() bool {
	return a.Token != "" && a.Token != "None"
}

// Complete reports whether the record carries everything a refresh needs.
func (a *Account) Complete() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.RefreshToken != ""
}
