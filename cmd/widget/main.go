package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"remark-go/internal/config"
	"remark-go/internal/widget/datasource"
	"remark-go/internal/widget/thread"
	"remark-go/internal/widget/view"
	"remark-go/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	threadID   string
)

func main() {
	root := &cobra.Command{
		Use:           "widget",
		Short:         "Terminal front end for a remark comment thread",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/widget.yaml", "widget config file")
	root.PersistentFlags().StringVarP(&threadID, "thread", "t", "", "thread id")
	_ = root.MarkPersistentFlagRequired("thread")

	root.AddCommand(
		showCmd(),
		postCmd(),
		replyCmd(),
		editCmd(),
		deleteCmd(),
		reactCmd(),
		unreactCmd(),
		watchCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if thread.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "the remote may recover, try again")
		}
		os.Exit(1)
	}
}

// session is one loaded thread plus the renderer drawing it.
type session struct {
	cfg   *config.WidgetConfig
	log   *zap.Logger
	model *thread.Model
	view  *view.Text
}

// open loads the thread. With live set the view redraws to stdout on every
// model change; otherwise the caller renders once when done.
func open(ctx context.Context, live bool) (*session, error) {
	cfg, err := config.LoadWidget(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	adapter := datasource.New(&cfg.DataSource,
		datasource.WithActor(cfg.UserInfo.ID),
		datasource.WithLogger(log),
		datasource.WithHTTPClient(&http.Client{Timeout: cfg.DataSource.TimeoutDuration()}),
	)
	dir, err := datasource.NewDirectory(adapter, cfg.DataSource.UserCacheSize, log)
	if err != nil {
		return nil, err
	}
	if adapter.Supports(datasource.EntityUsers, datasource.OpRead) {
		if n, err := dir.Prefetch(ctx); err != nil {
			log.Debug("user prefetch failed", zap.Error(err))
		} else {
			log.Debug("users prefetched", zap.Int("count", n))
		}
	}

	opts := []view.Option{view.WithUsers(dir), view.WithLogger(log), view.WithContext(ctx)}
	if live {
		opts = append(opts, view.WithOutput(os.Stdout))
	}
	v := view.New(nil, cfg, opts...)
	m := thread.New(adapter,
		thread.Identity{ID: cfg.UserInfo.ID, Moderator: cfg.UserInfo.Moderator},
		thread.WithBinding(v),
		thread.WithLogger(log),
		thread.WithReactionKinds(cfg.ReactionKinds...),
	)
	v.Attach(m)

	if err := m.Load(ctx, threadID); err != nil {
		m.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, model: m, view: v}, nil
}

func (s *session) render(ctx context.Context) error {
	return s.view.Render(ctx, os.Stdout)
}

func (s *session) close() {
	s.model.Close()
	_ = s.log.Sync()
}

// withSession runs fn against a freshly loaded thread and prints the result.
func withSession(fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := open(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()
		if err := fn(ctx, s, args); err != nil {
			return err
		}
		return s.render(ctx)
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the thread",
		Args:  cobra.NoArgs,
		RunE: withSession(func(context.Context, *session, []string) error {
			return nil
		}),
	}
}

func postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <body>",
		Short: "Add a top-level comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			c, err := s.model.AddComment(ctx, "", strings.Join(args, " "))
			if err != nil {
				return err
			}
			s.log.Info("comment posted", zap.String("comment_id", c.Comment.ID))
			return nil
		}),
	}
}

func replyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <parent-id> <body>",
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			_, err := s.model.AddComment(ctx, args[0], strings.Join(args[1:], " "))
			return err
		}),
	}
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <comment-id> <body>",
		Short: "Replace the body of one of your comments",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			_, err := s.model.EditComment(ctx, args[0], strings.Join(args[1:], " "))
			return err
		}),
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <comment-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a comment",
		Args:    cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return s.model.RemoveComment(ctx, args[0])
		}),
	}
}

func reactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "react <comment-id> <kind>",
		Short: "React to a comment",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			_, err := s.model.React(ctx, args[0], args[1])
			return err
		}),
	}
}

func unreactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unreact <comment-id> <kind>",
		Short: "Withdraw a reaction",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			return s.model.Unreact(ctx, args[0], args[1])
		}),
	}
}

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload and redraw the thread periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, true)
			if err != nil {
				return err
			}
			defer s.close()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					// load failures are drawn by the view; keep polling
					err := s.model.Load(ctx, threadID)
					if errors.Is(err, thread.ErrClosed) {
						return nil
					}
					if err != nil && !errors.Is(err, thread.ErrConflict) {
						s.log.Debug("reload failed", zap.Error(err))
					}
				}
			}
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 15*time.Second, "reload interval")
	return cmd
}
