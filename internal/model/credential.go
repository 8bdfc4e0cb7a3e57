// Package model defines the data structures used throughout the application.
package model

import "time"

// Credential is one authorized GitHub identity: the access token obtained
// from the OAuth exchange plus the profile fields needed to address GitHub
// API paths on the user's behalf.
//
// WHY UserID int64?
// GitHub user IDs are integers (e.g. 1234567) and, unlike the login, never
// change. The credential store keys records by this ID, so re-running the
// OAuth flow for the same account overwrites the previous record
// (last-write-wins) instead of creating a duplicate.
//
// The AccessToken is an opaque bearer token. It is replayed to GitHub on
// every provisioning call, returned to the client exactly once (in the
// callback response), and never logged.
type Credential struct {
	UserID      int64     `json:"userId"`
	Username    string    `json:"username"`     // GitHub login, e.g. "alice"
	AccessToken string    `json:"access_token"` // OAuth bearer token
	Scopes      []string  `json:"scopes"`       // granted OAuth scopes
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object; we only keep the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID; stable, never changes
	Login     string `json:"login"`      // GitHub username, e.g. "alice"
	Name      string `json:"name"`       // Display name (may be empty)
	Email     string `json:"email"`      // Primary email (empty if hidden in GitHub settings)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}
