package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"catnipgarden/internal/advisor"
	"catnipgarden/internal/auth"
	cl "catnipgarden/internal/cli"
	"catnipgarden/internal/config"
	"catnipgarden/internal/game"
	"catnipgarden/internal/play"
	"catnipgarden/internal/progress"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})),
		con:    newConsole(os.Stdin, os.Stdout),
	}
	if err := a.root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      config.CLIConfig
	logger   *slog.Logger
	con      *console
	sessions cl.SessionStore
	// interactive reports whether play can take over the terminal.
	interactive func() bool
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:          "garden",
		Short:        "Catnip Garden money games for curious kittens",
		SilenceUsage: true,
	}
	root.SetOut(a.con.out)
	root.AddCommand(
		a.newGamesCmd(),
		a.newDashCmd(),
		a.newPlayCmd(),
		a.newHistoryCmd(),
		a.newResetCmd(),
		a.newAskCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
	)
	return root
}

func (a *app) openTracker(ctx context.Context) (*progress.Tracker, func() error, error) {
	store := a.cfg.Store
	kv, closeStore, err := progress.Open(ctx, store.Kind, store.Path, store.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", store.Kind, err)
	}
	tracker, err := progress.NewTracker(ctx, kv, store.Namespace, progress.WithLogger(a.logger))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return tracker, closeStore, nil
}

func (a *app) identity() auth.Identity {
	sess, err := a.sessions.Load()
	if err != nil {
		return auth.Guest
	}
	return auth.Identity{
		Authenticated: true,
		DisplayName:   auth.DisplayName(sess.DisplayName, sess.Email),
		UserID:        sess.UserID,
		Email:         sess.Email,
	}
}

func (a *app) isTerminal() bool {
	if a.interactive != nil {
		return a.interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (a *app) newGamesCmd() *cobra.Command {
	var apiBase string
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List the games and the badges they award",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiBase != "" {
				return a.remote(cmd.Context(), apiBase, func(ctx context.Context, c *cl.Client) error {
					cards, err := c.Games(ctx)
					if err != nil {
						return err
					}
					renderGames(a.con.out, progressFromCards(cards))
					return nil
				})
			}
			tracker, closeStore, err := a.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			renderGames(a.con.out, tracker.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", "", "list games from a garden API")
	cmd.Flags().Lookup("api").NoOptDefVal = a.cfg.APIBaseURL
	return cmd
}

// progressFromCards rebuilds just enough of a record for renderGames.
func progressFromCards(cards []cl.GameCard) progress.UserProgress {
	p := progress.Default()
	for _, c := range cards {
		p.GamesCompleted[c.ID] = c.Completed
		if c.Earned {
			p.Badges = append(p.Badges, c.Badge)
		}
	}
	return p
}

func (a *app) newDashCmd() *cobra.Command {
	var apiBase string
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show your points, badges and games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiBase != "" {
				return a.remoteDash(cmd.Context(), apiBase)
			}
			tracker, closeStore, err := a.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			renderDashboard(a.con.out, dashboard{Identity: a.identity(), Progress: tracker.Snapshot()})
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", "", "read the dashboard from a garden API")
	cmd.Flags().Lookup("api").NoOptDefVal = a.cfg.APIBaseURL
	return cmd
}

func (a *app) remoteDash(ctx context.Context, apiBase string) error {
	var d dashboard
	err := a.remote(ctx, apiBase, func(ctx context.Context, c *cl.Client) error {
		who, err := c.Me(ctx)
		if err != nil {
			return err
		}
		p, err := c.Progress(ctx)
		if err != nil {
			return err
		}
		d = dashboard{Identity: who, Progress: p, Source: c.BaseURL}
		return nil
	})
	if err != nil {
		return err
	}
	renderDashboard(a.con.out, d)
	return nil
}

// remote runs fn against the API at apiBase with the saved login. A token
// the API rejects is refreshed once through Supabase before giving up.
func (a *app) remote(ctx context.Context, apiBase string, fn func(context.Context, *cl.Client) error) error {
	sess, _ := a.sessions.Load()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client := cl.NewClient(apiBase, sess.AccessToken)
	err := fn(ctx, client)

	var se *cl.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized || sess.RefreshToken == "" || !a.cfg.Auth.Enabled() {
		return err
	}
	fresh, rerr := auth.NewSupabaseClient(a.cfg.Auth.SupabaseURL, a.cfg.Auth.SupabaseAnonKey).Refresh(ctx, sess.RefreshToken)
	if rerr != nil {
		a.logger.Warn("token refresh failed", "err", rerr)
		return fmt.Errorf("%w (run `garden login` again)", err)
	}
	sess.AccessToken, sess.RefreshToken = fresh.AccessToken, fresh.RefreshToken
	if err := a.sessions.Save(sess); err != nil {
		return err
	}
	client.Token = fresh.AccessToken
	return fn(ctx, client)
}

func (a *app) newPlayCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "play <game>",
		Short: "Play one game: " + joinIDs(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := game.ID(strings.ToLower(strings.TrimSpace(args[0])))
			info, ok := game.Lookup(id)
			if !ok {
				return fmt.Errorf("%q: %w (choose one of %s)", args[0], game.ErrUnknownGame, joinIDs())
			}
			ctx := cmd.Context()
			tracker, closeStore, err := a.openTracker(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			box := &creditBox{}
			sess, err := play.NewSession(id, nil, func(points int) {
				box.set(tracker.Complete(context.WithoutCancel(ctx), id, points))
			})
			if err != nil {
				return err
			}

			if plain || !a.isTerminal() {
				err = playPlain(ctx, a.con, info.Title, sess, a.cfg.PaceDelay)
			} else {
				err = playTUI(info.Title, sess, box, a.cfg.PaceDelay)
			}
			if errors.Is(err, errQuit) {
				a.con.printWarn("Left " + info.Title + ". No points this time.")
				return nil
			}
			if err != nil {
				return err
			}
			a.summarize(info, box)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use numbered prompts instead of the full-screen view")
	return cmd
}

func (a *app) summarize(info game.Info, box *creditBox) {
	c, ok := box.get()
	if !ok {
		return
	}
	if c.Err != nil {
		a.con.printError("Could not save progress: " + c.Err.Error())
		return
	}
	a.con.printSuccess(fmt.Sprintf("%s complete: +%d points (total %d)", info.Title, c.Points, c.Total))
	if c.NewBadge != "" {
		a.con.printSuccess("New badge earned: " + c.NewBadge)
	}
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent points history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, closeStore, err := a.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			renderHistory(a.con.out, tracker.Snapshot(), limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "entries to show, 0 for all")
	return cmd
}

func (a *app) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase points, badges and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := a.con.promptChoice("Erase all progress?", []string{"yes", "no"}, "no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					a.con.printInfo("Nothing changed.")
					return nil
				}
			}
			tracker, closeStore, err := a.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			if err := tracker.Reset(cmd.Context()); err != nil {
				return err
			}
			a.con.printSuccess("Progress reset.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) newAskCmd() *cobra.Command {
	var apiBase string
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask the money advisor cat a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			ask := a.localAdvisor()
			if apiBase != "" {
				ask = a.remoteAdvisor(apiBase)
			}
			if len(args) > 0 {
				reply, err := ask(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				a.con.printInfo(reply)
				return nil
			}
			a.con.printInfo("Ask away! An empty line or \"bye\" ends the chat.")
			for {
				fmt.Fprint(a.con.out, "> ")
				line, err := a.con.readLine()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if line == "" || strings.EqualFold(line, "bye") {
					return nil
				}
				reply, err := ask(cmd.Context(), line)
				if err != nil {
					return err
				}
				accent.Fprintln(a.con.out, reply)
			}
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", "", "ask through a garden API")
	cmd.Flags().Lookup("api").NoOptDefVal = a.cfg.APIBaseURL
	return cmd
}

type askFunc func(ctx context.Context, prompt string) (string, error)

func (a *app) localAdvisor() askFunc {
	adv := advisor.New(a.cfg.Advisor.URL, a.cfg.Advisor.APIKey, a.logger)
	return func(ctx context.Context, prompt string) (string, error) {
		return adv.Reply(ctx, prompt), nil
	}
}

func (a *app) remoteAdvisor(apiBase string) askFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		var reply string
		err := a.remote(ctx, apiBase, func(ctx context.Context, c *cl.Client) error {
			var err error
			reply, err = c.Ask(ctx, prompt)
			return err
		})
		return reply, err
	}
}

func (a *app) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with your Supabase account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Auth.Enabled() {
				return errors.New("login needs SUPABASE_URL and SUPABASE_ANON_KEY")
			}
			email, err := a.con.promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := a.readPassword()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := auth.NewSupabaseClient(a.cfg.Auth.SupabaseURL, a.cfg.Auth.SupabaseAnonKey)
			session, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			who := auth.IdentityFor(session.User)
			if err := a.sessions.Save(cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        who.Email,
				UserID:       who.UserID,
				DisplayName:  who.DisplayName,
			}); err != nil {
				return err
			}
			a.con.printSuccess("Welcome, " + who.DisplayName + "!")
			return nil
		},
	}
}

func (a *app) readPassword() (string, error) {
	if !a.isTerminal() {
		return a.con.promptRequired("Password")
	}
	fmt.Fprint(a.con.out, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.con.out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", errors.New("password is required")
	}
	return string(raw), nil
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			a.con.printSuccess("Logged out.")
			return nil
		},
	}
}

func joinIDs() string {
	ids := game.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
