package google

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when a provider has no credential to hand out.
var ErrNoToken = errors.New("no Google OAuth token available")

// TokenProvider supplies the OAuth token used to call Google APIs. The
// session layer implements this over whatever credential the user arrived
// with; tests implement it with a canned token.
type TokenProvider interface {
	// Token returns the current access token, or an error when the caller
	// is effectively unauthenticated.
	Token(ctx context.Context) (*oauth2.Token, error)
}

// StaticTokenProvider wraps a bearer access token handed over by the
// session layer. It performs no refresh; an expired token surfaces as an
// upstream auth failure on the next call.
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider creates a provider for a raw access token.
func NewStaticTokenProvider(accessToken string) *StaticTokenProvider {
	return &StaticTokenProvider{
		token: &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		},
	}
}

// Token implements TokenProvider.
func (p *StaticTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	if p == nil || p.token == nil || p.token.AccessToken == "" {
		return nil, ErrNoToken
	}
	return p.token, nil
}

// RefreshingTokenProvider wraps an oauth2.TokenSource so tokens with a
// refresh token attached are renewed transparently.
type RefreshingTokenProvider struct {
	source oauth2.TokenSource
}

// NewRefreshingTokenProvider creates a provider backed by the OAuth config
// and an initial token carrying a refresh token.
func NewRefreshingTokenProvider(ctx context.Context, conf *oauth2.Config, initial *oauth2.Token) *RefreshingTokenProvider {
	return &RefreshingTokenProvider{source: conf.TokenSource(ctx, initial)}
}

// Token implements TokenProvider.
func (p *RefreshingTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	if p == nil || p.source == nil {
		return nil, ErrNoToken
	}
	token, err := p.source.Token()
	if err != nil {
		return nil, err
	}
	return token, nil
}
