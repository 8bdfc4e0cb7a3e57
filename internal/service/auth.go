// Package service contains the business logic layer: the OAuth callback
// orchestration (this file) and the repository provisioning pipeline
// (provision.go). Handlers parse HTTP and delegate here; repositories and
// the GitHub client do the I/O. Services see only interfaces, so every
// dependency can be mocked in tests.
package service

import (
	"context"
	"log/slog"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/auth"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
	"github.com/Pallava-Joshi/auto-committer/internal/repository"
)

// GitHubExchanger is the slice of auth.GitHubProvider this service uses.
type GitHubExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.ExchangeResult, error)
}

// AuthService orchestrates the OAuth callback: exchange the code, persist
// the credential, issue a session token.
type AuthService struct {
	github GitHubExchanger
	creds  repository.CredentialRepository
	tokens *auth.TokenService // nil when sessions are disabled (no JWT secret)
	logger *slog.Logger
}

// NewAuthService creates an AuthService. tokens may be nil, in which case
// callbacks succeed but no session JWT is issued.
func NewAuthService(
	github GitHubExchanger,
	creds repository.CredentialRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		github: github,
		creds:  creds,
		tokens: tokens,
		logger: logger,
	}
}

// LoginResult bundles what the callback handler needs in one step: the
// response body fields (token, scopes, profile) and the session JWT for the
// cookie. Session is empty when sessions are disabled.
type LoginResult struct {
	AccessToken string
	Scopes      []string
	User        *model.GitHubUser
	Session     string
}

// HandleCallback completes the OAuth flow for an authorization code.
//
// Ordering matters and is load-bearing:
//  1. A missing code fails before any network call.
//  2. The exchange (token, then identity) runs; its failures propagate with
//     upstream diagnostics attached and nothing is written.
//  3. On full success exactly one credential record is written, keyed by the
//     fetched identity's stable ID; re-authorization overwrites the prior
//     record for that user.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, apperror.ValidationFailed("code", "Authorization code is missing")
	}

	result, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	cred := &model.Credential{
		UserID:      result.User.ID,
		Username:    result.User.Login,
		AccessToken: result.AccessToken,
		Scopes:      result.Scopes,
	}
	if err := s.creds.Put(ctx, cred); err != nil {
		s.logger.Error("failed to store credential",
			slog.Int64("userID", result.User.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	login := &LoginResult{
		AccessToken: result.AccessToken,
		Scopes:      result.Scopes,
		User:        result.User,
	}

	if s.tokens != nil {
		session, err := s.tokens.Generate(result.User.ID)
		if err != nil {
			s.logger.Error("failed to issue session token",
				slog.Int64("userID", result.User.ID),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		login.Session = session
	}

	s.logger.Info("user authorized",
		slog.Int64("userID", result.User.ID),
		slog.String("login", result.User.Login),
		slog.Int("scopes", len(result.Scopes)),
	)

	return login, nil
}

// Profile returns the stored public profile fields for an authenticated
// session. The access token never leaves the service here.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*model.GitHubUser, error) {
	cred, err := s.creds.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.GitHubUser{ID: cred.UserID, Login: cred.Username}, nil
}
