package repository

import (
	"context"

	"github.com/Pallava-Joshi/auto-committer/internal/model"
)

// CredentialRepository persists per-user OAuth credentials.
//
// Semantics the rest of the app relies on:
//   - Put is last-write-wins per user ID: re-authorizing replaces the whole
//     record, there are no partial-field updates.
//   - Get returns apperror.ErrNotFound (wrapped) for unknown users.
type CredentialRepository interface {
	Put(ctx context.Context, cred *model.Credential) error
	Get(ctx context.Context, userID int64) (*model.Credential, error)
}
