package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/config"
	"github.com/voxelio/voxel-studio/internal/export"
	"github.com/voxelio/voxel-studio/internal/git"
	"github.com/voxelio/voxel-studio/internal/remote"
	"github.com/voxelio/voxel-studio/internal/studio"
)

var (
	githubFormat  outputFormat
	githubBranch  string
	githubFromGit string
	githubRemote  string
	githubMessage string
	githubHead    string
	githubBase    string
	githubTitle   string
	githubBody    string
	githubPrivate bool
	githubDesc    string
	githubCode    string
	githubState   string
)

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Link the working copy to GitHub and push changes",
	Long: `Talk to GitHub through the Voxel backend.

Authenticate with "voxel github login", then export the printed token as
VOXEL_API_TOKEN (or set api.token in the config file).`,
}

var githubStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication and the linked repository",
	Args:  cobra.NoArgs,
	RunE:  runGithubStatus,
}

var githubLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start the GitHub OAuth flow, or finish it with --code and --state",
	Args:  cobra.NoArgs,
	RunE:  runGithubLogin,
}

var githubLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the backend session",
	Args:  cobra.NoArgs,
	RunE:  runGithubLogout,
}

var githubReposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories you can push to",
	Args:  cobra.NoArgs,
	RunE:  runGithubRepos,
}

var githubLinkCmd = &cobra.Command{
	Use:   "link [owner/repo]",
	Short: "Link the working copy to a repository",
	Long: `Link the working copy to a GitHub repository so push and pr know where
to go. With --from-git, owner, repository and branch are read from a local
checkout.

Examples:
  voxel github link alice/my-pack
  voxel github link alice/my-pack --branch dev
  voxel github link --from-git ./my-pack`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGithubLink,
}

var githubUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Forget the linked repository",
	Args:  cobra.NoArgs,
	RunE:  runGithubUnlink,
}

var githubPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit the changed files to the linked branch",
	Args:  cobra.NoArgs,
	RunE:  runGithubPush,
}

var githubPRCmd = &cobra.Command{
	Use:   "pr",
	Short: "Push the changed files to a new branch and open a pull request",
	Args:  cobra.NoArgs,
	RunE:  runGithubPR,
}

var githubInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a repository from the working copy and link it",
	Args:  cobra.ExactArgs(1),
	RunE:  runGithubInit,
}

var githubImportCmd = &cobra.Command{
	Use:   "import <owner/repo>",
	Short: "Load a datapack from a GitHub repository and link it",
	Args:  cobra.ExactArgs(1),
	RunE:  runGithubImport,
}

func init() {
	rootCmd.AddCommand(githubCmd)
	githubCmd.AddCommand(githubStatusCmd, githubLoginCmd, githubLogoutCmd, githubReposCmd,
		githubLinkCmd, githubUnlinkCmd, githubPushCmd, githubPRCmd, githubInitCmd, githubImportCmd)

	githubFormat.register(githubStatusCmd)
	githubFormat.register(githubReposCmd)

	githubLoginCmd.Flags().StringVar(&githubCode, "code", "", "OAuth code from the callback URL")
	githubLoginCmd.Flags().StringVar(&githubState, "state", "", "OAuth state from the callback URL")

	githubLinkCmd.Flags().StringVar(&githubBranch, "branch", "", "Branch to push to (default from config)")
	githubLinkCmd.Flags().StringVar(&githubFromGit, "from-git", "", "Read the repository from a local checkout")
	githubLinkCmd.Flags().StringVar(&githubRemote, "remote", "origin", "Git remote used with --from-git")

	githubPushCmd.Flags().StringVarP(&githubMessage, "message", "m", "", "Commit message (default from config)")

	githubPRCmd.Flags().StringVar(&githubHead, "head", "", "Branch to create (default voxel/<timestamp>)")
	githubPRCmd.Flags().StringVar(&githubBase, "base", "", "Branch to merge into (default the linked branch)")
	githubPRCmd.Flags().StringVar(&githubTitle, "title", "", "Pull request title (default the commit message)")
	githubPRCmd.Flags().StringVar(&githubBody, "body", "", "Pull request description")

	githubInitCmd.Flags().BoolVar(&githubPrivate, "private", false, "Create a private repository")
	githubInitCmd.Flags().StringVar(&githubDesc, "description", "", "Repository description")
	githubInitCmd.Flags().StringVar(&githubBranch, "branch", "", "Initial branch (default the repository default)")

	githubImportCmd.Flags().StringVar(&githubBranch, "branch", "", "Branch to import (default the repository default)")
}

type githubStatus struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Login         string `json:"login,omitempty" yaml:"login,omitempty"`
	Repository    string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Branch        string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Initializing  *int   `json:"initializing,omitempty" yaml:"initializing,omitempty"`
	Backend       string `json:"backend" yaml:"backend"`
	Reachable     bool   `json:"reachable" yaml:"reachable"`
}

func runGithubStatus(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s := openStudio(ctx)
	defer s.Dispose()

	client := newClient()
	exp := s.Export.State()
	status := githubStatus{
		Repository:   exp.FullName(),
		Branch:       exp.Branch,
		Initializing: exp.IsInitializing,
		Backend:      client.BaseURL(),
		Reachable:    remote.IsAvailable(client.BaseURL()),
	}

	if status.Reachable && config.GetAPIToken() != "" {
		info, err := client.Session(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else if info.Authenticated {
			status.Authenticated = true
			if info.User != nil {
				status.Login = info.User.Login
			}
		}
	}

	if ok, err := githubFormat.write(status); ok {
		return err
	}

	if !status.Reachable {
		fmt.Fprintf(out, "Backend %s is unreachable\n", status.Backend)
	} else if status.Authenticated {
		fmt.Fprintf(out, "Signed in as %s\n", status.Login)
	} else {
		fmt.Fprintln(out, "Not signed in - run: voxel github login")
	}
	if status.Repository != "" {
		fmt.Fprintf(out, "Linked to %s (%s)\n", status.Repository, status.Branch)
	} else {
		fmt.Fprintln(out, "No repository linked")
	}
	if status.Initializing != nil {
		fmt.Fprintf(out, "Repository initialization interrupted at stage %d of %d\n", *status.Initializing, export.StageLink)
	}
	return nil
}

func runGithubLogin(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	client := newClient()

	if githubCode == "" {
		start, err := client.StartAuth(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Open this URL in a browser and authorize Voxel Studio:")
		fmt.Fprintf(out, "\n  %s\n\n", start.AuthURL)
		fmt.Fprintf(out, "Then run: voxel github login --code <code> --state %s\n", start.State)
		return nil
	}

	res, err := client.ExchangeCode(ctx, githubCode, githubState)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Signed in as %s\n", res.User.Login)
	fmt.Fprintf(out, "  export VOXEL_API_TOKEN=%s\n", res.Token)
	return nil
}

func runGithubLogout(cmd *cobra.Command, args []string) error {
	if err := newClient().Logout(commandContext(cmd)); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Signed out")
	return nil
}

func runGithubRepos(cmd *cobra.Command, args []string) error {
	repos, err := newClient().ListRepositories(commandContext(cmd))
	if err != nil {
		return explainAPIError(err)
	}

	if ok, err := githubFormat.write(repos); ok {
		return err
	}
	if len(repos) == 0 {
		fmt.Fprintln(out, "No repositories found")
		return nil
	}

	tw := newTable(table.Row{"REPOSITORY", "BRANCH", "VISIBILITY"})
	for _, r := range repos {
		visibility := "public"
		if r.Private {
			visibility = "private"
		}
		tw.AppendRow(table.Row{r.FullName, r.DefaultBranch, visibility})
	}
	tw.Render()
	return nil
}

func runGithubLink(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := loadedStudio(ctx)
	if err != nil {
		return err
	}
	defer s.Dispose()

	if githubFromGit != "" {
		return linkFromCheckout(ctx, s, githubFromGit, githubRemote)
	}
	if len(args) == 0 {
		return errors.New("expected owner/repo or --from-git")
	}

	owner, repo, err := splitRepository(args[0])
	if err != nil {
		return err
	}
	branch := githubBranch
	if branch == "" {
		branch = config.GetDefaultBranch()
	}

	s.Export.SetGitRepository(ctx, owner, repo, branch, s.Export.Token())
	fmt.Fprintf(out, "✓ Linked to %s/%s (%s)\n", owner, repo, branch)
	return nil
}

func linkFromCheckout(ctx context.Context, s *studio.Studio, dir, remoteName string) error {
	r, err := git.Probe(dir, remoteName)
	if err != nil {
		return fmt.Errorf("failed to link checkout: %w", err)
	}
	s.Export.SetGitRepository(ctx, r.Owner, r.Repo, r.Branch, s.Export.Token())
	fmt.Fprintf(out, "✓ Linked to %s/%s (%s)\n", r.Owner, r.Repo, r.Branch)
	return nil
}

func runGithubUnlink(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s := openStudio(ctx)
	defer s.Dispose()

	s.Export.ClearGitRepository(ctx)
	fmt.Fprintln(out, "✓ Unlinked")
	return nil
}

func runGithubPush(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := loadedStudio(ctx)
	if err != nil {
		return err
	}
	defer s.Dispose()

	message := githubMessage
	if message == "" {
		message = config.GetCommitMessage()
	}

	res, err := export.Push(ctx, newClient(), s.Export, s.Changes, message)
	if errors.Is(err, export.ErrNothingToPush) {
		fmt.Fprintln(out, "Nothing to push")
		return nil
	}
	if err != nil {
		return explainAPIError(err)
	}

	fmt.Fprintf(out, "✓ Pushed to %s (%s)\n", s.Export.State().FullName(), shortSHA(res.SHA))
	if res.URL != "" {
		fmt.Fprintf(out, "  %s\n", res.URL)
	}
	return nil
}

func runGithubPR(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := loadedStudio(ctx)
	if err != nil {
		return err
	}
	defer s.Dispose()

	title := githubTitle
	if title == "" {
		title = config.GetCommitMessage()
	}
	head := githubHead
	if head == "" {
		head = "voxel/" + nowStamp()
	}

	pr, err := export.OpenPullRequest(ctx, newClient(), s.Export, s.Changes, head, githubBase, title, githubBody)
	if errors.Is(err, export.ErrNothingToPush) {
		fmt.Fprintln(out, "Nothing to push")
		return nil
	}
	if err != nil {
		return explainAPIError(err)
	}

	fmt.Fprintf(out, "✓ Opened pull request #%d from %s\n", pr.Number, head)
	if pr.URL != "" {
		fmt.Fprintf(out, "  %s\n", pr.URL)
	}
	return nil
}

func runGithubInit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := loadedStudio(ctx)
	if err != nil {
		return err
	}
	defer s.Dispose()

	owner, name := "", args[0]
	if strings.Contains(name, "/") {
		owner, name, err = splitRepository(name)
		if err != nil {
			return err
		}
	}

	repo, err := export.Initialize(ctx, newClient(), s.Export, s.Configurator, export.InitOptions{
		Owner:       owner,
		Name:        name,
		Description: githubDesc,
		Private:     githubPrivate,
		Branch:      githubBranch,
		Message:     config.GetCommitMessage(),
	})
	if err != nil {
		return explainAPIError(err)
	}

	state := s.Export.State()
	fmt.Fprintf(out, "✓ Created %s and linked it (%s)\n", state.FullName(), state.Branch)
	if repo.Private {
		fmt.Fprintln(out, "  Visibility: private")
	}
	return nil
}

func runGithubImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	owner, repo, err := splitRepository(args[0])
	if err != nil {
		return err
	}

	s := openStudio(ctx)
	defer s.Dispose()

	client := newClient()
	branch := githubBranch
	if branch == "" {
		branch = repositoryDefaultBranch(ctx, client, owner, repo)
	}

	result, err := export.Import(ctx, client, s.Configurator.Analyser(), owner, repo, branch)
	if err != nil {
		return explainAPIError(err)
	}
	s.Load(ctx, result)

	if branch == "" {
		branch = config.GetDefaultBranch()
	}
	s.Export.SetGitRepository(ctx, owner, repo, branch, s.Export.Token())

	fmt.Fprintf(out, "✓ Imported %s/%s (%d elements) and linked it (%s)\n", owner, repo, len(result.Elements), branch)
	return nil
}

// repositoryDefaultBranch looks up the default branch of owner/repo. It
// returns an empty string when the repository is not listed.
func repositoryDefaultBranch(ctx context.Context, client *remote.Client, owner, repo string) string {
	repos, err := client.ListRepositories(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return ""
	}
	full := owner + "/" + repo
	for _, r := range repos {
		if strings.EqualFold(r.FullName, full) {
			return r.DefaultBranch
		}
	}
	return ""
}

func splitRepository(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q (expected owner/repo)", s)
	}
	return owner, repo, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func nowStamp() string {
	return time.Now().UTC().Format("20060102-150405")
}

// explainAPIError adds a hint for the backend errors users can act on
func explainAPIError(err error) error {
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w (run: voxel github login)", err)
	case http.StatusNotFound:
		return fmt.Errorf("%w (check the linked repository with: voxel github status)", err)
	case http.StatusConflict:
		return fmt.Errorf("%w (the branch moved; pull the latest changes and reload)", err)
	}
	return err
}
