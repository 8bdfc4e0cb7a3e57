// Package auth implements the GitHub side of authentication: the OAuth
// authorization-code flow that produces an access token, and the JWT session
// tokens this server issues afterwards (jwt.go, middleware.go).
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to GitHub's authorization endpoint.
//  2. The user approves the request on GitHub.
//  3. GitHub redirects back to the callback URL with a short-lived "code".
//  4. The server exchanges the code for an access token (server-to-server,
//     using the client secret; the token never touches the browser mid-flow).
//  5. The server uses the token to fetch the authenticated user's profile.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
)

const defaultUserURL = "https://api.github.com/user"

// Scopes requested during authorization:
//   - "public_repo": create repositories and write workflow files
//   - "read:user":   the user's public profile (ID, login, avatar)
//   - "user:email":  the user's email addresses
var defaultScopes = []string{"public_repo", "read:user", "user:email"}

// ProviderConfig holds the OAuth app credentials. Client ID and secret come
// from the environment and are passed in here explicitly; the provider never
// reads globals. AuthURL/TokenURL/UserURL exist so tests can point the flow
// at an httptest server; left empty they default to the real GitHub
// endpoints.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	AuthURL    string
	TokenURL   string
	UserURL    string
	HTTPClient *http.Client
}

// GitHubProvider runs the GitHub authorization-code flow.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
	http    *http.Client
}

// ExchangeResult is everything a successful exchange yields. The token and
// the profile are distinct fields on purpose: the token is attributable to
// the user but must never be re-derivable from the profile alone.
type ExchangeResult struct {
	AccessToken string
	Scopes      []string
	User        *model.GitHubUser
}

// NewGitHubProvider creates a provider from the given config.
//
// Register the OAuth app at github.com/settings/developers; CallbackURL must
// match the configured "Authorization callback URL" exactly.
func NewGitHubProvider(cfg ProviderConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" || cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}
	userURL := cfg.UserURL
	if userURL == "" {
		userURL = defaultUserURL
	}

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       defaultScopes,
			Endpoint:     endpoint,
		},
		userURL: userURL,
		http:    cfg.HTTPClient,
	}
}

// AuthURL returns the GitHub authorization URL to redirect the user to.
// state is a random nonce the callback handler verifies against a cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for an access token and fetches the
// authenticated user's profile with it.
//
// The two steps are strictly ordered: a failed token exchange short-circuits
// before any identity fetch. Either failure comes back as an upstream
// apperror carrying GitHub's status and response body.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*ExchangeResult, error) {
	if p.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	}

	// Step 1: authorization code → access token.
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		// GitHub reports exchange failures (bad code, bad client secret) as
		// an error payload; x/oauth2 surfaces it as a RetrieveError with the
		// raw body attached.
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, apperror.Upstream("Failed to retrieve access token", status, retrieveErr.Body)
		}
		return nil, apperror.Upstream("Failed to retrieve access token", 0, []byte(err.Error()))
	}
	if token.AccessToken == "" {
		return nil, apperror.Upstream("Failed to retrieve access token", 0, nil)
	}

	// Step 2: fetch the profile. Config.Client returns an *http.Client that
	// attaches the bearer token to every request.
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: creating user request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: reading GitHub /user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("Failed to fetch GitHub user", resp.StatusCode, body)
	}

	var user model.GitHubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if user.ID == 0 || user.Login == "" {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (id=%d, login=%q)", user.ID, user.Login)
	}

	return &ExchangeResult{
		AccessToken: token.AccessToken,
		Scopes:      parseScopes(token),
		User:        &user,
	}, nil
}

// parseScopes splits GitHub's comma-delimited scope field from the token
// response ("public_repo,read:user" → two entries). Absent or empty scope
// yields an empty, non-nil slice so the callback response serializes as [].
func parseScopes(token *oauth2.Token) []string {
	scopes := []string{}
	raw, _ := token.Extra("scope").(string)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
