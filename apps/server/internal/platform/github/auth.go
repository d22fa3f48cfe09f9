package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"golang.org/x/oauth2"
)

// NewTokenHTTPClient returns an *http.Client that injects a fixed bearer
// token into every request. Used for local development and tooling where a
// single personal access token stands in for per-user credentials; the
// server's main path passes each user's decrypted token per call instead.
func NewTokenHTTPClient(token string) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(context.Background(), ts)
}

// NewAppHTTPClient returns an *http.Client authenticated as a GitHub App
// installation. Used in deployed environments where the service acts on
// repositories through an app installation rather than user tokens.
// privateKeyPath is the path to the app's PEM private key.
func NewAppHTTPClient(appID, installationID int64, privateKeyPath, baseURL string) (*http.Client, error) {
	tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("github app auth: %w", err)
	}
	if baseURL != "" {
		tr.BaseURL = baseURL
	}
	return &http.Client{Transport: tr}, nil
}
