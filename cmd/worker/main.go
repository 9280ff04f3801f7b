package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remark-go/internal/config"
	"remark-go/internal/infra/database"
	infraES "remark-go/internal/infra/elasticsearch"
	infraKafka "remark-go/internal/infra/kafka"
	"remark-go/internal/model"
	"remark-go/internal/repository"
	"remark-go/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reindexBatch = 500

func main() {
	var (
		configPath string
		reindex    bool
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Index comment events into Elasticsearch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, reindex)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "config file")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the index from the database before consuming")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, reindex bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		return fmt.Errorf("init elasticsearch: %w", err)
	}
	defer infraES.Close()

	index := cfg.Elasticsearch.CommentIndex()
	if err := infraES.EnsureCommentsIndex(ctx, index); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	if reindex {
		if err := rebuildIndex(ctx, cfg, index); err != nil {
			return err
		}
	}

	topic := cfg.Kafka.CommentTopic()
	logger.Info("Search worker started",
		zap.String("topic", topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.String("index", index),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	infraKafka.StartCommentEventConsumer(ctx, cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, indexEvent(index))

	logger.Info("Search worker stopped")
	return nil
}

// indexEvent keeps the index in step with one comment event.
func indexEvent(index string) infraKafka.CommentEventHandler {
	log := logger.With(zap.String("index", index))
	return func(ctx context.Context, event *model.CommentEvent) error {
		var err error
		switch event.Type {
		case model.CommentCreated, model.CommentUpdated:
			err = infraES.SyncComment(ctx, index, &event.Comment)
		case model.CommentDeleted:
			err = infraES.DeleteComment(ctx, index, event.Comment.ID)
		default:
			log.Warn("Unknown comment event type", zap.String("type", event.Type))
			return nil
		}
		if err == nil {
			log.Debug("Comment indexed", zap.String("type", event.Type), zap.Int64("comment_id", event.Comment.ID))
		}
		return err
	}
}

// rebuildIndex pages every live comment from the database into the index.
func rebuildIndex(ctx context.Context, cfg *config.Config, index string) error {
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close()

	repo := repository.NewCommentRepository(database.Get())

	var afterID int64
	var total, failed int
	for {
		batch, err := repo.ListLive(ctx, afterID, reindexBatch)
		if err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		ok, bad, err := infraES.BulkSyncComments(ctx, index, batch)
		if err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}
		total += ok
		failed += bad
		afterID = batch[len(batch)-1].ID
	}

	logger.Info("Comment index rebuilt", zap.Int("indexed", total), zap.Int("failed", failed))
	return nil
}
