// Package cli implements the decisionctl command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/decision-board/backend/internal/client"
	"github.com/emilythestrangee/decision-board/backend/internal/feed"
)

const defaultAPI = "http://localhost:8080"

// app is the state shared by every subcommand: one client and one store.
type app struct {
	apiURL    string
	tokenFile string
	asJSON    bool

	client *client.Client
	store  *feed.Store
	voter  *feed.Voter
}

// NewRootCmd builds the decisionctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "decisionctl",
		Short:         "Share decisions and vote on them from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api", envOr("DECISIONCTL_API", defaultAPI), "API base URL")
	cmd.PersistentFlags().StringVar(&a.tokenFile, "token-file", defaultTokenFile(), "Where the session token is kept")
	cmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print raw JSON")

	cmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.feedCmd(),
		a.showCmd(),
		a.voteCmd(),
		a.commentCmd(),
		a.breakdownCmd(),
		a.dashboardCmd(),
		a.postCmd(),
		a.deleteCmd(),
	)
	return cmd
}

func (a *app) init() error {
	token := os.Getenv("DECISIONCTL_TOKEN")
	if token == "" && a.tokenFile != "" {
		data, err := os.ReadFile(a.tokenFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	a.client = client.New(a.apiURL, client.WithToken(token))
	a.store = feed.NewStore()
	a.voter = feed.NewVoter(a.store, a.client)
	return nil
}

func (a *app) saveToken(token string) error {
	if a.tokenFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.tokenFile, []byte(token+"\n"), 0o600)
}

// friendly adds a sign-in hint to authentication failures.
func friendly(err error) error {
	if errors.Is(err, client.ErrAuthRequired) {
		return fmt.Errorf("sign in first with `decisionctl login`: %w", err)
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "decisionctl", "token")
}
