package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Pallava-Joshi/auto-committer/internal/model"
)

// Provisioner is what the workflow handler needs from the service layer.
// Satisfied by *service.ProvisionService; tests inject a mock.
type Provisioner interface {
	Provision(ctx context.Context, req model.ProvisioningRequest) (*model.ProvisioningResult, error)
}

// WorkflowHandler serves POST /generate-workflow.
type WorkflowHandler struct {
	provisioner Provisioner
	logger      *slog.Logger
}

// NewWorkflowHandler creates a WorkflowHandler.
func NewWorkflowHandler(provisioner Provisioner, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		provisioner: provisioner,
		logger:      logger,
	}
}

// GenerateResponse is the success body of /generate-workflow.
type GenerateResponse struct {
	Success bool   `json:"success"`
	RepoURL string `json:"repoUrl"`
	Message string `json:"message"`
}

// HandleGenerate provisions a scheduled-commit repository.
//
// Request body: {userId, repoName, frequency?, message?}. The handler only
// parses; all validation and sequencing lives in the service, so a malformed
// name or unknown user never reaches GitHub.
func (h *WorkflowHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req model.ProvisioningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.provisioner.Provision(r.Context(), req)
	if err != nil {
		h.logger.Warn("provisioning failed",
			slog.Int64("userID", req.UserID),
			slog.String("repoName", req.RepoName),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success: true,
		RepoURL: result.RepoURL,
		Message: result.Message,
	})
}
