package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/handler"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
)

// mockProvisioner implements handler.Provisioner.
type mockProvisioner struct {
	capturedReq model.ProvisioningRequest
	result      *model.ProvisioningResult
	err         error
	calls       int
}

func (m *mockProvisioner) Provision(_ context.Context, req model.ProvisioningRequest) (*model.ProvisioningResult, error) {
	m.calls++
	m.capturedReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func postGenerate(t *testing.T, h *handler.WorkflowHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate-workflow", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.HandleGenerate(rr, req)
	return rr
}

func TestHandleGenerate_Success(t *testing.T) {
	prov := &mockProvisioner{
		result: &model.ProvisioningResult{
			RepoURL: "https://github.com/alice/my-bot",
			Message: "Repository my-bot created successfully with auto-commit workflow. Visit alice/my-bot to see it.",
		},
	}
	h := handler.NewWorkflowHandler(prov, testLogger())

	rr := postGenerate(t, h, `{"userId":42,"repoName":"my-bot","frequency":"0 6 * * *","message":"daily sync"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp handler.GenerateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://github.com/alice/my-bot", resp.RepoURL)
	assert.Contains(t, resp.Message, "my-bot created successfully")

	// The body fields all reached the service untouched.
	assert.Equal(t, int64(42), prov.capturedReq.UserID)
	assert.Equal(t, "my-bot", prov.capturedReq.RepoName)
	assert.Equal(t, "0 6 * * *", prov.capturedReq.Frequency)
	assert.Equal(t, "daily sync", prov.capturedReq.Message)
}

func TestHandleGenerate_InvalidJSON(t *testing.T) {
	prov := &mockProvisioner{}
	h := handler.NewWorkflowHandler(prov, testLogger())

	rr := postGenerate(t, h, `{"userId":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, prov.calls)
}

func TestHandleGenerate_ValidationError(t *testing.T) {
	prov := &mockProvisioner{
		err: apperror.ValidationFailed("repoName",
			"Invalid repoName. Use alphanumeric characters and hyphens only."),
	}
	h := handler.NewWorkflowHandler(prov, testLogger())

	rr := postGenerate(t, h, `{"userId":42,"repoName":"bad name!"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Invalid repoName. Use alphanumeric characters and hyphens only.", resp.Error)
}

func TestHandleGenerate_UnknownUser(t *testing.T) {
	prov := &mockProvisioner{err: apperror.NotFound("user", "999")}
	h := handler.NewWorkflowHandler(prov, testLogger())

	rr := postGenerate(t, h, `{"userId":999,"repoName":"my-bot"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGenerate_UpstreamFailureCarriesDetails(t *testing.T) {
	prov := &mockProvisioner{
		err: apperror.Upstream("Failed to create repository from template", 422,
			[]byte(`{"message":"Name already exists on this account"}`)),
	}
	h := handler.NewWorkflowHandler(prov, testLogger())

	rr := postGenerate(t, h, `{"userId":42,"repoName":"my-bot"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Failed to create repository from template", resp.Error)
	assert.Contains(t, string(resp.Details), "Name already exists")
}
