package models

// ExportState records whether the working tree maps to a remote repository
type ExportState struct {
	IsGitRepository bool   `json:"isGitRepository"`
	Owner           string `json:"owner"`
	RepositoryName  string `json:"repositoryName"`
	Branch          string `json:"branch"`
	IsInitializing  *int   `json:"isInitializing"`
}

// FullName returns owner/repository, or an empty string when unlinked
func (s ExportState) FullName() string {
	if !s.IsGitRepository {
		return ""
	}
	return s.Owner + "/" + s.RepositoryName
}
