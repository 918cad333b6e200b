package buildsystem

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/release-engineering/distrobaker/internal/errs"
)

// OIDCAuth attaches a client-credentials bearer token to outgoing
// requests (§4.2 "bearer token obtained from the configured identity
// provider using the listed scopes and client credentials").
type OIDCAuth struct {
	source oauth2.TokenSource
}

// NewOIDCAuth builds an OIDCAuth that fetches tokens from provider's
// token endpoint using clientID/clientSecret and scopes, refreshing
// transparently via oauth2.TokenSource.
func NewOIDCAuth(ctx context.Context, tokenURL, clientID, clientSecret string, scopes []string) *OIDCAuth {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &OIDCAuth{source: cfg.TokenSource(ctx)}
}

func (a *OIDCAuth) Authenticate(ctx context.Context, req *http.Request) error {
	tok, err := a.source.Token()
	if err != nil {
		return errs.Auth("fetch oidc token", err)
	}
	req.Header.Set("Authorization", strings.TrimSpace(tok.Type()+" "+tok.AccessToken))
	return nil
}
