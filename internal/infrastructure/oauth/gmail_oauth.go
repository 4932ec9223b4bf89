package oauth

import (
	"context"
	"errors"
	"fmt"

	"airfare-collector/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

var (
	// ErrMissingClient means GMAIL_CLIENT_ID or GMAIL_CLIENT_SECRET is unset
	ErrMissingClient = errors.New("gmail client id and secret are required")
	// ErrMissingRefreshToken means the consent flow has not been run for the sender
	ErrMissingRefreshToken = errors.New("gmail refresh token is required")
)

// SenderOptions configures the account that sends run reports
type SenderOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURL  string
	// Endpoint defaults to Google
	Endpoint oauth2.Endpoint
}

// SenderAuth authorizes the report mailer with the gmail.send scope only
type SenderAuth struct {
	config       *oauth2.Config
	refreshToken string
	logger       logger.Logger
}

// NewSenderAuth creates a Gmail authorizer for the report sender
func NewSenderAuth(opts SenderOptions, logger logger.Logger) (*SenderAuth, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrMissingClient
	}
	endpoint := opts.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	return &SenderAuth{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{gmail.GmailSendScope},
		},
		refreshToken: opts.RefreshToken,
		logger:       logger,
	}, nil
}

// TokenSource trades the stored refresh token for access tokens and reuses each until it expires
func (a *SenderAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if a.refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	return a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: a.refreshToken}), nil
}

// ConsentURL asks for offline access so the exchange yields a refresh token
func (a *SenderAuth) ConsentURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for the sender's refresh token
func (a *SenderAuth) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is empty")
	}
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", errors.New("token response carried no refresh token, revoke access and retry")
	}

	a.logger.Info("Refresh token obtained", "expiry", token.Expiry)
	return token.RefreshToken, nil
}
