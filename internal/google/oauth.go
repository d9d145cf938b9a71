package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// OAuthConfig returns the OAuth2 configuration used when client
// credentials are available and tokens should be refreshed automatically.
// The only scope this service needs is event creation on the user's
// calendars.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			calendar.CalendarEventsScope,
		},
	}
}

// providerTokenSource adapts a TokenProvider to oauth2.TokenSource so the
// token is fetched lazily, on the first outbound request.
type providerTokenSource struct {
	ctx      context.Context
	provider TokenProvider
}

func (s providerTokenSource) Token() (*oauth2.Token, error) {
	return s.provider.Token(s.ctx)
}

// NewHTTPClient returns an HTTP client that authenticates requests with
// the provider's tokens. The client is pinned to HTTP/1.1: the Google API
// endpoints intermittently reset HTTP/2 streams under the oauth2
// transport.
func NewHTTPClient(ctx context.Context, provider TokenProvider) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	source := oauth2.ReuseTokenSource(nil, providerTokenSource{ctx: ctx, provider: provider})
	client := oauth2.NewClient(ctx, source)

	transport, ok := client.Transport.(*oauth2.Transport)
	if ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	return client, nil
}
