// Command setup performs the one-time OAuth onboarding for a YouTube account
// and stores the resulting credential record in the accounts file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/models"
	"github.com/maheshrc27/shortspipe/internal/repository"
)

const (
	callbackAddr = "localhost:8090"
	uploadScope  = "https://www.googleapis.com/auth/youtube.upload"
)

type clientSecrets struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
}

func main() {
	secretsPath := flag.String("secrets", "", "Path to client_secrets.json file")
	accountName := flag.String("account", "", "Account name for this setup")
	flag.Parse()

	if *secretsPath == "" || *accountName == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}
	cfg := config.LoadConfig()

	data, err := os.ReadFile(*secretsPath)
	if err != nil {
		log.Fatalf("Unable to read client secrets: %v", err)
	}

	var secrets clientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		log.Fatalf("Client secrets file is not valid JSON: %v", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     secrets.Installed.ClientID,
		ClientSecret: secrets.Installed.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://%s/callback", callbackAddr),
		Scopes:       []string{uploadScope},
		Endpoint:     google.Endpoint,
	}

	token, err := runFlow(oauthConfig)
	if err != nil {
		log.Fatalf("OAuth flow failed: %v", err)
	}

	if token.RefreshToken == "" {
		log.Fatal("No refresh token received; revoke the app's access in your Google account and retry")
	}

	account := &models.Account{
		ClientID:     oauthConfig.ClientID,
		ClientSecret: oauthConfig.ClientSecret,
		RefreshToken: token.RefreshToken,
		Token:        token.AccessToken,
		TokenURI:     google.Endpoint.TokenURL,
		Scopes:       oauthConfig.Scopes,
	}
	if !token.Expiry.IsZero() {
		account.TokenExpiry = token.Expiry.Format(time.RFC3339)
	}

	accountRepo := repository.NewAccountRepository(cfg.AccountsFile)
	if err := accountRepo.Upsert(*accountName, account); err != nil {
		log.Fatalf("Unable to save account: %v", err)
	}

	fmt.Printf("Successfully set up account: %s\n", *accountName)
}

// runFlow prints the consent URL, waits for the browser redirect on the local
// callback listener and exchanges the authorization code for tokens.
func runFlow(oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open the following URL in your browser:\n\n%s\n\n", authURL)

	codeCh := make(chan string, 1)
	server := &http.Server{Addr: callbackAddr}

	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization received. You can close this window.")
		codeCh <- code
	})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Callback server failed: %v", err)
		}
	}()

	code := <-codeCh

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	return oauthConfig.Exchange(ctx, code)
}
