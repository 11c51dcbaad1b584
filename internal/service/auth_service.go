package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/maheshrc27/shortspipe/internal/apperr"
	"github.com/maheshrc27/shortspipe/internal/models"
	"github.com/maheshrc27/shortspipe/internal/repository"
)

// expiryLeeway widens the expiry check so a token about to lapse mid-upload
// is refreshed up front.
const expiryLeeway = 30 * time.Second

type AuthService interface {
	AccessToken(ctx context.Context, name string, account *models.Account) (string, error)
	ForceRefresh(ctx context.Context, name string) (string, time.Time, error)
}

type authService struct {
	ar repository.AccountRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAuthService(ar repository.AccountRepository) AuthService {
	return &authService{
		ar:    ar,
		locks: make(map[string]*sync.Mutex),
	}
}

// AccessToken returns a usable access token for the account, refreshing and
// persisting it when the stored one is absent or expired. Refreshes for the
// same account name are serialized so concurrent requests cannot clobber
// each other's persisted token.
func (s *authService) AccessToken(ctx context.Context, name string, account *models.Account) (string, error) {
	if account.HasToken() && !expired(account.TokenExpiry) {
		return account.Token, nil
	}

	lock := s.accountLock(name)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have refreshed while we waited on the lock.
	if fresh, err := s.ar.GetByName(name); err == nil {
		if fresh.HasToken() && !expired(fresh.TokenExpiry) {
			return fresh.Token, nil
		}
		account = fresh
	}

	token, _, err := s.refresh(ctx, name, account)
	return token, err
}

// ForceRefresh refreshes the account's token regardless of freshness. Used by
// POST /refresh-token and the periodic refresh job.
func (s *authService) ForceRefresh(ctx context.Context, name string) (string, time.Time, error) {
	account, err := s.ar.GetByName(name)
	if err != nil {
		return "", time.Time{}, err
	}

	lock := s.accountLock(name)
	lock.Lock()
	defer lock.Unlock()

	return s.refresh(ctx, name, account)
}

func (s *authService) refresh(ctx context.Context, name string, account *models.Account) (string, time.Time, error) {
	if !account.Complete() {
		return "", time.Time{}, apperr.New(apperr.KindReauthRequired, "account is missing refresh credentials; re-authentication required")
	}

	endpoint := google.Endpoint
	if account.TokenURI != "" {
		endpoint = oauth2.Endpoint{TokenURL: account.TokenURI}
	}

	conf := &oauth2.Config{
		ClientID:     account.ClientID,
		ClientSecret: account.ClientSecret,
		Endpoint:     endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Error("token refresh failed", "account", name, "error", err)
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") {
			return "", time.Time{}, apperr.Wrap(apperr.KindReauthRequired, "OAuth refresh token is invalid or revoked; re-authenticate the account", err)
		}
		return "", time.Time{}, apperr.Wrap(apperr.KindRefreshFailed, "error refreshing token", err)
	}

	if token.AccessToken == "" {
		return "", time.Time{}, apperr.New(apperr.KindRefreshFailed, "no token received after refresh")
	}

	if ok := s.ar.UpdateToken(name, token.AccessToken, token.Expiry); !ok {
		slog.Error("refreshed token could not be persisted", "account", name)
	}

	slog.Info("token refreshed", "account", name)
	return token.AccessToken, token.Expiry, nil
}

func (s *authService) accountLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func expired(expiry string) bool {
	if expiry == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		// An unparseable expiry is treated as stale so we refresh rather
		// than upload with a token of unknown age.
		return true
	}
	return time.Now().After(t.Add(-expiryLeeway))
}
