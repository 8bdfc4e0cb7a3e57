package model

// Defaults applied to a ProvisioningRequest when the caller omits the
// optional fields. The frequency is a standard five-field cron expression
// evaluated by GitHub Actions, not by this service.
const (
	DefaultFrequency = "0 0 * * *" // daily at midnight UTC
	DefaultMessage   = "Auto commit"
)

// ProvisioningRequest is one user's intent to create an automated-commit
// repository: which stored credential to act as, what to call the new repo,
// and how the generated workflow should commit.
//
// RepoName must match ^[A-Za-z0-9-]+$; it becomes part of GitHub API paths
// and the repository URL. Validation happens in the service layer before any
// external call, so a bad name causes zero remote side effects.
type ProvisioningRequest struct {
	UserID    int64  `json:"userId"`
	RepoName  string `json:"repoName"`
	Frequency string `json:"frequency,omitempty"` // cron expression for the schedule trigger
	Message   string `json:"message,omitempty"`   // commit message used by the workflow
}

// ApplyDefaults fills the optional fields in place.
func (r *ProvisioningRequest) ApplyDefaults() {
	if r.Frequency == "" {
		r.Frequency = DefaultFrequency
	}
	if r.Message == "" {
		r.Message = DefaultMessage
	}
}

// ProvisioningResult is the success payload for a completed provisioning run:
// where the new repository lives and a human-readable confirmation.
type ProvisioningResult struct {
	RepoURL string `json:"repoUrl"`
	Message string `json:"message"`
}
