package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/shared"
	"golang.org/x/oauth2"
)

const spotifyAccountsURL = "https://accounts.spotify.com"

// SpotifyScopes are the permissions requested at sign-in.
var SpotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-top-read",
	"user-read-recently-played",
	"user-library-read",
}

// SpotifyAuth drives the authorization code flow that produces a [models.SessionCredential].
type SpotifyAuth struct {
	config *oauth2.Config
}

// NewSpotifyAuth creates the OAuth2 configuration from the Spotify credentials.
func NewSpotifyAuth(creds shared.SpotifyConfig) (*SpotifyAuth, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if creds.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrMissingCredentials)
	}

	accounts := strings.TrimRight(creds.AccountsURL, "/")
	if accounts == "" {
		accounts = spotifyAccountsURL
	}

	return &SpotifyAuth{config: &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   accounts + "/authorize",
			TokenURL:  accounts + "/api/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}}, nil
}

// AuthCodeURL returns the authorization URL the browser is redirected to.
func (a *SpotifyAuth) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a credential.
func (a *SpotifyAuth) Exchange(ctx context.Context, code string) (*models.SessionCredential, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return CredentialFromToken(token), nil
}

// CredentialFromToken copies the parts of an OAuth2 token the session keeps.
func CredentialFromToken(token *oauth2.Token) *models.SessionCredential {
	cred := &models.SessionCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry.Unix()
		cred.ExpiresAt = &expiresAt
	}
	return cred
}
