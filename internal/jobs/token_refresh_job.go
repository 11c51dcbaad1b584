package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/shortspipe/internal/repository"
	"github.com/maheshrc27/shortspipe/internal/service"
)

type TokenRefreshJob struct {
	ar   repository.AccountRepository
	auth service.AuthService
}

func NewTokenRefreshJob(ar repository.AccountRepository, auth service.AuthService) *TokenRefreshJob {
	return &TokenRefreshJob{ar: ar, auth: auth}
}

// RefreshTokens walks the account store and refreshes every token that is
// absent or expires within the next 30 minutes. Failures are logged only; the
// next run retries.
func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	accounts, err := j.ar.Load()
	if err != nil {
		slog.Error("token refresh job: unable to load accounts", "error", err)
		return
	}

	deadline := time.Now().Add(30 * time.Minute)

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for name, account := range accounts {
		if account.HasToken() && !expiresBefore(account.TokenExpiry, deadline) {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(name string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, _, err := j.auth.ForceRefresh(ctx, name); err != nil {
				slog.Info("unable to refresh token", "account", name, "error", err)
			}
		}(name)
	}

	wg.Wait()
}

func expiresBefore(expiry string, deadline time.Time) bool {
	if expiry == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		return true
	}
	return t.Before(deadline)
}
