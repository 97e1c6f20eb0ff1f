package identity

import (
	"context"
	"fmt"

	"github.com/outpost-labs/basecamp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleVerifier performs the OAuth handshake with Google,
// the external sign-in scheme of a basecamp application.
type GoogleVerifier struct {
	config *oauth2.Config
}

const GoogleProvider = "google"

func NewGoogleVerifier(clientID, clientSecret, redirectURL string) (*GoogleVerifier, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, fmt.Errorf(`%w: google config cannot be ""`, basecamp.ErrBadConfig)
	}

	return &GoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{goauth2.UserinfoEmailScope},
			Endpoint:     google.Endpoint,
		},
	}, nil
}

// AuthCodeURL returns the Google consent page URL carrying the CSRF state.
func (g *GoogleVerifier) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange converts an authorization code into a token.
func (g *GoogleVerifier) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.config.Exchange(ctx, code)
}

// FetchUser retrieves the Google account behind the token.
func (g *GoogleVerifier) FetchUser(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	service, err := goauth2.NewService(ctx, option.WithTokenSource(g.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	return service.Userinfo.Get().Do()
}
