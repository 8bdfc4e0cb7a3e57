package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/github"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
	"github.com/Pallava-Joshi/auto-committer/internal/workflow"
)

// mockGitHubAPI records every call so tests can assert on ordering and on
// which steps never ran.
type mockGitHubAPI struct {
	calls []string

	generateErr  error
	fileState    github.FileState
	getFileErr   error
	putFileErr   error
	capturedPut  github.FileWrite
	capturedPath string
}

func (m *mockGitHubAPI) GenerateFromTemplate(_ context.Context, token, templateOwner, templateRepo, owner, name string) (*github.Repository, error) {
	m.calls = append(m.calls, "generate")
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &github.Repository{
		Owner: owner,
		Name:  name,
		URL:   "https://github.com/" + owner + "/" + name,
	}, nil
}

func (m *mockGitHubAPI) GetFile(_ context.Context, token, owner, repo, path string) (github.FileState, error) {
	m.calls = append(m.calls, "getFile")
	if m.getFileErr != nil {
		return github.FileState{}, m.getFileErr
	}
	return m.fileState, nil
}

func (m *mockGitHubAPI) PutFile(_ context.Context, token, owner, repo, path string, write github.FileWrite) error {
	m.calls = append(m.calls, "putFile")
	m.capturedPath = path
	m.capturedPut = write
	return m.putFileErr
}

func newTestProvisionService(creds *mockCredentialRepo, gh *mockGitHubAPI) *ProvisionService {
	return NewProvisionService(creds, gh, "Pallava-Joshi", "auto-commit-template", testLogger())
}

func credsWithAlice() *mockCredentialRepo {
	creds := newMockCredentialRepo()
	creds.store[42] = &model.Credential{
		UserID:      42,
		Username:    "alice",
		AccessToken: "tok",
		Scopes:      []string{"public_repo"},
	}
	return creds
}

// =========================================================================
// VALIDATION TESTS
// =========================================================================

func TestProvision_InvalidRepoName(t *testing.T) {
	invalid := []string{"bad name!", "has space", "uh/oh", "dot.dot", "", "emoji🤖"}

	for _, name := range invalid {
		t.Run(name, func(t *testing.T) {
			creds := credsWithAlice()
			gh := &mockGitHubAPI{}
			svc := newTestProvisionService(creds, gh)

			_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
				UserID:   42,
				RepoName: name,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			// Validation failures cause zero I/O of any kind.
			assert.Empty(t, gh.calls)
			assert.Zero(t, creds.getCalls)
		})
	}
}

func TestProvision_UnknownUser(t *testing.T) {
	gh := &mockGitHubAPI{}
	svc := newTestProvisionService(newMockCredentialRepo(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   999,
		RepoName: "my-bot",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Empty(t, gh.calls) // no repository-hosting call was made
}

// =========================================================================
// PIPELINE TESTS
// =========================================================================

func TestProvision_Success_NewWorkflowFile(t *testing.T) {
	gh := &mockGitHubAPI{fileState: github.FileState{Exists: false}}
	svc := newTestProvisionService(credsWithAlice(), gh)

	result, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:    42,
		RepoName:  "my-bot",
		Frequency: "0 6 * * *",
		Message:   "daily sync",
	})
	require.NoError(t, err)

	// Strict sequencing: repo creation, then lookup, then write.
	assert.Equal(t, []string{"generate", "getFile", "putFile"}, gh.calls)

	assert.Equal(t, "https://github.com/alice/my-bot", result.RepoURL)
	assert.Contains(t, result.Message, "my-bot created successfully")

	// The file did not exist, so the write must omit the sha precondition.
	assert.Empty(t, gh.capturedPut.SHA)
	assert.Equal(t, workflow.Path, gh.capturedPath)
	assert.Equal(t, workflow.CommitMessage, gh.capturedPut.Message)

	decoded, err := base64.StdEncoding.DecodeString(gh.capturedPut.Content)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "- cron: '0 6 * * *'")
	assert.Contains(t, string(decoded), `commit_message: "daily sync"`)
}

func TestProvision_Success_ExistingWorkflowFile(t *testing.T) {
	gh := &mockGitHubAPI{fileState: github.FileState{Exists: true, SHA: "abc123sha"}}
	svc := newTestProvisionService(credsWithAlice(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   42,
		RepoName: "my-bot",
	})
	require.NoError(t, err)

	// The file exists: the write must carry the observed hash so a
	// concurrent change makes GitHub reject it.
	assert.Equal(t, "abc123sha", gh.capturedPut.SHA)
}

func TestProvision_AppliesDefaults(t *testing.T) {
	gh := &mockGitHubAPI{}
	svc := newTestProvisionService(credsWithAlice(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   42,
		RepoName: "my-bot",
	})
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(gh.capturedPut.Content)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "- cron: '0 0 * * *'")
	assert.Contains(t, string(decoded), `commit_message: "Auto commit"`)
}

func TestProvision_RepoCreationFailure(t *testing.T) {
	gh := &mockGitHubAPI{
		generateErr: apperror.Upstream("Failed to create repository from template", 422, []byte(`{"message":"exists"}`)),
	}
	svc := newTestProvisionService(credsWithAlice(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   42,
		RepoName: "my-bot",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))

	// The workflow steps never run after a failed creation.
	assert.Equal(t, []string{"generate"}, gh.calls)
}

func TestProvision_LookupFailureAbortsBeforeWrite(t *testing.T) {
	gh := &mockGitHubAPI{
		getFileErr: apperror.Upstream("Failed to check existing workflow file", 403, nil),
	}
	svc := newTestProvisionService(credsWithAlice(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   42,
		RepoName: "my-bot",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"generate", "getFile"}, gh.calls)
}

func TestProvision_WriteFailurePropagates(t *testing.T) {
	gh := &mockGitHubAPI{
		putFileErr: apperror.Upstream("Failed to update workflow file", 409, []byte(`{"message":"conflict"}`)),
	}
	svc := newTestProvisionService(credsWithAlice(), gh)

	_, err := svc.Provision(context.Background(), model.ProvisioningRequest{
		UserID:   42,
		RepoName: "my-bot",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Status)
}
