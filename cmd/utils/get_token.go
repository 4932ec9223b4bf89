package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"

	"airfare-collector/internal/infrastructure/config"
	"airfare-collector/internal/infrastructure/oauth"
	"airfare-collector/pkg/logger"
)

// Prints a Gmail refresh token for GMAIL_REFRESH_TOKEN after the consent flow completes
func main() {
	addr := flag.String("addr", "localhost:8090", "callback listen address")
	flag.Parse()

	log := logger.NewLogger(logger.Options{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	auth, err := oauth.NewSenderAuth(oauth.SenderOptions{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		RedirectURL:  "http://" + *addr + "/oauth2callback",
	}, log)
	if err != nil {
		log.Fatal("Failed to configure Gmail OAuth", "error", err)
	}

	// Create a random state
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("Failed to create state", "error", err)
	}
	state := hex.EncodeToString(buf)

	// Start an HTTP server to handle the OAuth callback
	http.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		// Check state parameter
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Exchange the authorization code for a token
		refreshToken, err := auth.Exchange(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to exchange code: %v", err), http.StatusInternalServerError)
			return
		}

		// Print the refresh token
		fmt.Printf("\nGMAIL_REFRESH_TOKEN=%s\n\n", refreshToken)

		// Respond to the user
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		os.Exit(0)
	})

	// Generate the authorization URL
	fmt.Printf("Open this URL in your browser:\n%s\n", auth.ConsentURL(state))

	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal("Callback server failed", "error", err)
	}
}
