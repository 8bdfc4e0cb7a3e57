package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
	"github.com/Pallava-Joshi/auto-committer/internal/github"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
	"github.com/Pallava-Joshi/auto-committer/internal/repository"
	"github.com/Pallava-Joshi/auto-committer/internal/workflow"
)

// repoNamePattern is the only accepted shape for new repository names.
// The name ends up in GitHub API paths and the repository URL, so anything
// outside this set is rejected before a single byte goes over the network.
var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// GitHubAPI is the slice of the GitHub client the provisioning pipeline uses.
type GitHubAPI interface {
	GenerateFromTemplate(ctx context.Context, token, templateOwner, templateRepo, owner, name string) (*github.Repository, error)
	GetFile(ctx context.Context, token, owner, repo, path string) (github.FileState, error)
	PutFile(ctx context.Context, token, owner, repo, path string, write github.FileWrite) error
}

// ProvisionService turns a provisioning request into a working
// scheduled-commit repository: create from template, then upsert the
// workflow file.
type ProvisionService struct {
	creds         repository.CredentialRepository
	github        GitHubAPI
	templateOwner string
	templateRepo  string
	logger        *slog.Logger
}

// NewProvisionService creates a ProvisionService. templateOwner/templateRepo
// identify the fixed template repository every new repo is generated from.
func NewProvisionService(
	creds repository.CredentialRepository,
	gh GitHubAPI,
	templateOwner, templateRepo string,
	logger *slog.Logger,
) *ProvisionService {
	return &ProvisionService{
		creds:         creds,
		github:        gh,
		templateOwner: templateOwner,
		templateRepo:  templateRepo,
		logger:        logger,
	}
}

// Provision runs the full pipeline for one request.
//
// The steps are strictly sequential, each depending on the previous one's
// result, and there are no retries: the first failure aborts the attempt and
// propagates with upstream diagnostics attached.
//
//	validate name → load credential → create repo from template
//	→ render workflow → look up file state → conditional write
//
// The steps are not transactional on GitHub's side. A failure after repo
// creation leaves a provisioned-but-unconfigured repository behind; that is
// accepted rather than papered over with compensation logic, and the error
// details tell the caller exactly which step failed.
func (s *ProvisionService) Provision(ctx context.Context, req model.ProvisioningRequest) (*model.ProvisioningResult, error) {
	// Validation happens before any I/O, including the credential lookup;
	// a bad name must cause zero side effects anywhere.
	if !repoNamePattern.MatchString(req.RepoName) {
		return nil, apperror.ValidationFailed("repoName",
			"Invalid repoName. Use alphanumeric characters and hyphens only.")
	}
	req.ApplyDefaults()

	cred, err := s.creds.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	repo, err := s.github.GenerateFromTemplate(ctx, cred.AccessToken,
		s.templateOwner, s.templateRepo, cred.Username, req.RepoName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("repository created from template",
		slog.Int64("userID", req.UserID),
		slog.String("repo", repo.Owner+"/"+repo.Name),
	)

	if err := s.upsertWorkflow(ctx, cred.AccessToken, repo, req.Frequency, req.Message); err != nil {
		return nil, err
	}

	s.logger.Info("workflow installed",
		slog.Int64("userID", req.UserID),
		slog.String("repo", repo.Owner+"/"+repo.Name),
		slog.String("frequency", req.Frequency),
	)

	return &model.ProvisioningResult{
		RepoURL: repo.URL,
		Message: fmt.Sprintf(
			"Repository %s created successfully with auto-commit workflow. Visit %s/%s to see it.",
			req.RepoName, repo.Owner, repo.Name,
		),
	}, nil
}

// upsertWorkflow ensures the workflow file in repo reflects the requested
// schedule and commit message.
//
// The write is conditioned on the file's current content hash: when the
// lookup finds the file, its sha rides along so GitHub rejects the write
// atomically if anyone changed the file in between; when the lookup reports
// absence (a 404, which is a valid state here, not an error), the sha is
// omitted so the write creates the file. That precondition is the pipeline's
// only concurrency-safety mechanism, and the only one it needs.
func (s *ProvisionService) upsertWorkflow(ctx context.Context, token string, repo *github.Repository, frequency, message string) error {
	document, err := workflow.Render(frequency, message)
	if err != nil {
		return err
	}

	state, err := s.github.GetFile(ctx, token, repo.Owner, repo.Name, workflow.Path)
	if err != nil {
		return err
	}

	write := github.FileWrite{
		Message: workflow.CommitMessage,
		Content: workflow.Encode(document),
	}
	if state.Exists {
		write.SHA = state.SHA
	}

	return s.github.PutFile(ctx, token, repo.Owner, repo.Name, workflow.Path, write)
}
