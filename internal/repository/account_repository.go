package repository

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/maheshrc27/shortspipe/internal/apperr"
	"github.com/maheshrc27/shortspipe/internal/models"
)

type AccountRepository interface {
	Load() (map[string]*models.Account, error)
	GetByName(name string) (*models.Account, error)
	UpdateToken(name, token string, expiry time.Time) bool
	Upsert(name string, account *models.Account) error
}

type accountRepository struct {
	path string
}

func NewAccountRepository(path string) AccountRepository {
	return &accountRepository{path: path}
}

func (r *accountRepository) Load() (map[string]*models.Account, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Error("accounts file not found", "path", r.path)
			return nil, apperr.Wrap(apperr.KindConfigMissing, "accounts file not found", err)
		}
		slog.Error(err.Error())
		return nil, apperr.Wrap(apperr.KindConfigMissing, "unable to read accounts file", err)
	}

	var accounts map[string]*models.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		slog.Error("accounts file is not valid JSON", "path", r.path)
		return nil, apperr.Wrap(apperr.KindConfigCorrupt, "accounts file is not valid JSON", err)
	}

	return accounts, nil
}

func (r *accountRepository) GetByName(name string) (*models.Account, error) {
	accounts, err := r.Load()
	if err != nil {
		return nil, err
	}

	account, ok := accounts[name]
	if !ok {
		return nil, apperr.New(apperr.KindAccountNotFound, "account not found")
	}

	return account, nil
}

// UpdateToken overwrites the stored access token (and expiry, when non-zero)
// for name. The file is replaced through a backup-then-rename sequence so a
// crash mid-write leaves the previous valid state behind. Any failure is
// reported as false, never an error; callers must check the result.
func (r *accountRepository) UpdateToken(name, token string, expiry time.Time) bool {
	accounts, err := r.Load()
	if err != nil {
		slog.Error(err.Error())
		return false
	}

	account, ok := accounts[name]
	if !ok {
		slog.Error("cannot update token for unknown account", "account", name)
		return false
	}

	account.Token = token
	if !expiry.IsZero() {
		account.TokenExpiry = expiry.Format(time.RFC3339)
	}

	if err := r.write(accounts); err != nil {
		slog.Error(err.Error())
		return false
	}

	slog.Info("saved refreshed token", "account", name)
	return true
}

func (r *accountRepository) Upsert(name string, account *models.Account) error {
	accounts, err := r.Load()
	if err != nil {
		// A missing file is fine on first onboarding run.
		if apperr.KindOf(err) != apperr.KindConfigMissing {
			return err
		}
		accounts = make(map[string]*models.Account)
	}

	accounts[name] = account
	return r.write(accounts)
}

func (r *accountRepository) write(accounts map[string]*models.Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}

	if _, err := os.Stat(r.path); err == nil {
		if err := os.Rename(r.path, r.path+".bak"); err != nil {
			return err
		}
	}

	return os.WriteFile(r.path, data, 0o600)
}
