package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/decision-board/backend/internal/client"
	"github.com/emilythestrangee/decision-board/backend/internal/feed"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

func (a *app) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := a.saveToken(res.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	for _, f := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var req models.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := a.saveToken(res.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) feedCmd() *cobra.Command {
	var q client.FeedQuery
	var mine bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var page models.DecisionPage
			var err error
			if mine {
				page, err = a.client.MyDecisions(cmd.Context(), q.Page)
			} else {
				page, err = a.client.Feed(cmd.Context(), q)
			}
			if err != nil {
				return friendly(err)
			}
			a.store.Replace(page.Decisions)
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), page)
			}
			printDecisions(cmd.OutOrStdout(), a.store.Snapshot())
			if page.HasMore {
				fmt.Fprintf(cmd.OutOrStdout(), "\nMore: --page %d\n", page.Page+1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Category, "category", "", "Only this category ("+strings.Join(models.Categories, ", ")+")")
	cmd.Flags().StringVarP(&q.Search, "search", "q", "", "Search titles")
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only your own decisions")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a decision with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := a.load(cmd, id)
			if err != nil {
				return err
			}
			comments, err := a.client.Comments(cmd.Context(), id)
			if err != nil {
				return friendly(err)
			}
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"decision": d, "comments": comments})
			}
			printDecision(cmd.OutOrStdout(), d)
			printComments(cmd.OutOrStdout(), comments)
			return nil
		},
	}
}

func (a *app) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id> <up|down>",
		Short: "Toggle your vote on a decision",
		Long: `Voting the same way twice removes your vote. Voting the other way
switches it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vt := models.VoteType(strings.ToLower(args[1]))
			if !vt.Valid() {
				return feed.ErrInvalidVote
			}
			if _, err := a.load(cmd, id); err != nil {
				return err
			}
			tally, err := a.voter.Vote(cmd.Context(), id, vt)
			if err != nil {
				return friendly(err)
			}
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), tally)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTally(tally))
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text...>",
		Short: "Comment on a decision",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return friendly(err)
			}
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment %s added\n", c.ID)
			return nil
		},
	}
}

func (a *app) breakdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <id>",
		Short: "Show votes split by voter gender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := feed.Breakdown(cmd.Context(), a.client, id)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "breakdown unavailable: %v\n", err)
			}
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), b)
			}
			printBreakdown(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize your own decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.Dashboard(cmd.Context())
			if err != nil {
				return friendly(err)
			}
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	var (
		req       models.CreateDecisionRequest
		expiresIn time.Duration
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Share a new decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expiresIn > 0 {
				at := time.Now().Add(expiresIn).UTC().Truncate(time.Second)
				req.ExpiresAt = &at
			}
			var image *client.Image
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				defer f.Close()
				image = &client.Image{
					Filename:    filepath.Base(imagePath),
					ContentType: mime.TypeByExtension(filepath.Ext(imagePath)),
					Body:        f,
				}
			}
			d, err := a.client.CreateDecision(cmd.Context(), req, image)
			if err != nil {
				return friendly(err)
			}
			a.store.Upsert(d)
			if a.asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Close voting after this long")
	cmd.Flags().StringVar(&imagePath, "image", "", "Image file to attach")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteDecision(cmd.Context(), id); err != nil {
				return friendly(err)
			}
			a.store.Remove(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

// load fetches a decision into the store so the voter can work on it.
func (a *app) load(cmd *cobra.Command, id uuid.UUID) (models.DecisionView, error) {
	d, err := a.client.Decision(cmd.Context(), id)
	if err != nil {
		return d, friendly(err)
	}
	a.store.Upsert(d)
	return d, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid decision id %q", s)
	}
	return id, nil
}
