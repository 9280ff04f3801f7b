package elasticsearch

import (
	"context"
	"fmt"
	"strings"

	"remark-go/pkg/logger"

	"go.uber.org/zap"
)

// commentsIndexMapping keeps bodies as analysed text and everything the
// search filters on as keywords.
const commentsIndexMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"thread_id": {"type": "keyword"},
			"parent_id": {"type": "long"},
			"author_id": {"type": "long"},
			"body": {"type": "text", "analyzer": "standard"},
			"sticked": {"type": "boolean"},
			"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"},
			"updated_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
		}
	}
}`

// EnsureCommentsIndex creates the comment index when it is missing.
func EnsureCommentsIndex(ctx context.Context, index string) error {
	exists, err := IndicesExists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		logger.Info("Elasticsearch comment index already exists", zap.String("index", index))
		return nil
	}

	resp, err := IndicesCreate(ctx, index, strings.NewReader(commentsIndexMapping))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	// a concurrent creator may have won the race
	if resp.IsError() && !strings.Contains(resp.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch comment index created", zap.String("index", index))
	return nil
}
