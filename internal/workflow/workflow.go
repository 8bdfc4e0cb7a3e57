// Package workflow renders the GitHub Actions document that performs the
// scheduled commits inside a provisioned repository.
//
// The document is produced as text and never parsed back, and rendering must
// be deterministic: the same (frequency, message) pair always yields the same
// bytes. That is what makes the contents-API upsert idempotent: re-running
// provisioning with unchanged settings writes an identical file.
package workflow

import (
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"
)

// Path is where the workflow document lives inside the generated repository.
// GitHub Actions only picks up workflows under .github/workflows/.
const Path = ".github/workflows/commit.yml"

// CommitMessage is the commit message used when writing the workflow file
// itself (not to be confused with the message the workflow commits with).
const CommitMessage = "Update auto-commit workflow with user settings"

// documentTemplate substitutes the schedule frequency into the cron trigger
// and the commit message into the auto-commit step. No other templating
// variables are supported.
var documentTemplate = template.Must(template.New("commit.yml").Parse(`name: Auto Commit
on:
  schedule:
    - cron: '{{.Frequency}}' # e.g., daily at midnight
jobs:
  commit:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v3
      - run: echo "Auto commit $(date)" >> README.md
      - uses: stefanzweifel/git-auto-commit-action@v4
        with:
          commit_message: "{{.Message}}"
`))

// Render produces the workflow document for the given schedule and commit
// message.
func Render(frequency, message string) (string, error) {
	var b strings.Builder
	data := struct {
		Frequency string
		Message   string
	}{frequency, message}

	if err := documentTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("workflow: rendering document: %w", err)
	}
	return b.String(), nil
}

// Encode converts a rendered document into the base64 form the GitHub
// contents API requires for file bodies.
func Encode(document string) string {
	return base64.StdEncoding.EncodeToString([]byte(document))
}
