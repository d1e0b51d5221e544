// Package remote is the client for the studio backend, which relays GitHub
// operations on behalf of the user.
package remote

// User is the minimal GitHub profile relayed by the backend
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
}

// SessionInfo describes the current authentication
type SessionInfo struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// Repository is a GitHub repository visible to the user
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// InitRequest creates a repository
type InitRequest struct {
	Owner       string `json:"owner,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
}

// PushRequest commits a set of file changes. Files are base64 encoded.
type PushRequest struct {
	Owner   string            `json:"owner"`
	Repo    string            `json:"repo"`
	Branch  string            `json:"branch"`
	Message string            `json:"message"`
	Files   map[string]string `json:"files"`
	Deleted []string          `json:"deleted"`
}

// PushResult is the commit created by a push
type PushResult struct {
	SHA string `json:"sha"`
	URL string `json:"url,omitempty"`
}

// PullRequestRequest pushes changes to a new branch and opens a pull request
type PullRequestRequest struct {
	PushRequest
	Base  string `json:"base"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// PullRequest is an opened pull request
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
	Branch string `json:"branch,omitempty"`
}

// AuthStart is the first leg of the OAuth flow
type AuthStart struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// AuthResult is the outcome of the OAuth callback
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
