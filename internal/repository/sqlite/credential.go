package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
	"github.com/Pallava-Joshi/auto-committer/internal/repository"
	"github.com/Pallava-Joshi/auto-committer/internal/secret"
)

// credentialKeyPrefix namespaces credential rows in the kv table. Any other
// record kind stored later gets its own prefix.
const credentialKeyPrefix = "user:"

// CredentialStore persists model.Credential records in the kv table, one
// JSON document per user keyed by "user:<github id>".
//
// When a cipher is configured, the access token inside the stored document is
// sealed; the rest of the record stays readable for debugging. A nil cipher
// stores the token as-is.
type CredentialStore struct {
	db     *DB
	cipher *secret.Cipher
}

// compile-time check that *CredentialStore implements the repository interface
var _ repository.CredentialRepository = (*CredentialStore)(nil)

// Credentials returns a CredentialStore backed by this database.
func (db *DB) Credentials(cipher *secret.Cipher) *CredentialStore {
	return &CredentialStore{db: db, cipher: cipher}
}

func credentialKey(userID int64) string {
	return credentialKeyPrefix + strconv.FormatInt(userID, 10)
}

// Put writes the whole credential record for cred.UserID, overwriting any
// previous record for that user.
func (s *CredentialStore) Put(ctx context.Context, cred *model.Credential) error {
	sealed, err := s.cipher.Seal(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("sqlite: sealing access token for user %d: %w", cred.UserID, err)
	}

	stored := *cred
	stored.AccessToken = sealed
	stored.UpdatedAt = time.Now().UTC()

	value, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("sqlite: encoding credential for user %d: %w", cred.UserID, err)
	}

	if err := s.db.put(ctx, credentialKey(cred.UserID), string(value)); err != nil {
		return err
	}

	cred.UpdatedAt = stored.UpdatedAt
	return nil
}

// Get loads the credential for userID.
// Returns apperror.ErrNotFound (wrapped) if the user never authorized.
func (s *CredentialStore) Get(ctx context.Context, userID int64) (*model.Credential, error) {
	value, ok, err := s.db.get(ctx, credentialKey(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}

	var cred model.Credential
	if err := json.Unmarshal([]byte(value), &cred); err != nil {
		return nil, fmt.Errorf("sqlite: decoding credential for user %d: %w", userID, err)
	}

	token, err := s.cipher.Open(cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening access token for user %d: %w", userID, err)
	}
	cred.AccessToken = token

	return &cred, nil
}
