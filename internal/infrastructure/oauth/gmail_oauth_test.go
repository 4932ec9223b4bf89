package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"airfare-collector/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
)

// tokenServer answers the OAuth token endpoint with the given JSON body
// and records the last form it received.
func tokenServer(t *testing.T, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	form := &url.Values{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		*form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, form
}

func newTestAuth(t *testing.T, srv *httptest.Server, refreshToken string) *SenderAuth {
	t.Helper()
	auth, err := NewSenderAuth(SenderOptions{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: refreshToken,
		RedirectURL:  "http://localhost:8090/oauth2callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, logger.NewNop())
	require.NoError(t, err)
	return auth
}

func TestNewSenderAuthRequiresClient(t *testing.T) {
	_, err := NewSenderAuth(SenderOptions{ClientID: "client"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrMissingClient)

	auth, err := NewSenderAuth(SenderOptions{ClientID: "client", ClientSecret: "secret"}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://oauth2.googleapis.com/token", auth.config.Endpoint.TokenURL)
	assert.Equal(t, []string{gmail.GmailSendScope}, auth.config.Scopes)
}

func TestConsentURLRequestsOfflineAccess(t *testing.T) {
	srv, _ := tokenServer(t, `{}`)
	auth := newTestAuth(t, srv, "")

	u, err := url.Parse(auth.ConsentURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, gmail.GmailSendScope, q.Get("scope"))
	assert.Equal(t, "http://localhost:8090/oauth2callback", q.Get("redirect_uri"))
}

func TestExchangeReturnsRefreshToken(t *testing.T) {
	srv, form := tokenServer(t, `{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`)
	auth := newTestAuth(t, srv, "")

	refreshToken, err := auth.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshToken)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "code-1", form.Get("code"))
}

func TestExchangeWithoutRefreshToken(t *testing.T) {
	srv, _ := tokenServer(t, `{"access_token":"access","token_type":"Bearer","expires_in":3600}`)
	auth := newTestAuth(t, srv, "")

	_, err := auth.Exchange(context.Background(), "code-1")
	assert.ErrorContains(t, err, "no refresh token")

	_, err = auth.Exchange(context.Background(), "")
	assert.Error(t, err)
}

func TestTokenSourceRefreshes(t *testing.T) {
	srv, form := tokenServer(t, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
	auth := newTestAuth(t, srv, "stored-refresh")

	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)
	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "stored-refresh", form.Get("refresh_token"))
}

func TestTokenSourceWithoutRefreshToken(t *testing.T) {
	srv, _ := tokenServer(t, `{}`)
	auth := newTestAuth(t, srv, "")

	_, err := auth.TokenSource(context.Background())
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}
