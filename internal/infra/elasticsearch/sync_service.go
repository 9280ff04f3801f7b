package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"go.uber.org/zap"
)

// CommentDoc is the indexed form of a live comment.
type CommentDoc struct {
	ID        int64  `json:"id"`
	ThreadID  string `json:"thread_id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	AuthorID  int64  `json:"author_id"`
	Body      string `json:"body"`
	Sticked   bool   `json:"sticked"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func commentToDoc(c *model.Comment) *CommentDoc {
	return &CommentDoc{
		ID:        c.ID,
		ThreadID:  c.ThreadID,
		ParentID:  c.ParentID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		Sticked:   c.Sticked,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SyncComment indexes a live comment and removes a tombstone.
func SyncComment(ctx context.Context, index string, c *model.Comment) error {
	if c.Deleted {
		return DeleteComment(ctx, index, c.ID)
	}

	body, err := json.Marshal(commentToDoc(c))
	if err != nil {
		return err
	}

	resp, err := Index(ctx, index, strconv.FormatInt(c.ID, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Comment synced to ES", zap.Int64("comment_id", c.ID))
	return nil
}

// DeleteComment removes a document; a missing one is not an error.
func DeleteComment(ctx context.Context, index string, commentID int64) error {
	resp, err := Delete(ctx, index, strconv.FormatInt(commentID, 10))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete document failed: %s", resp.String())
	}
	return nil
}

// bulkBody renders index actions for comments as NDJSON.
func bulkBody(index string, comments []model.Comment) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range comments {
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": strconv.FormatInt(comments[i].ID, 10)},
		}
		if err := enc.Encode(action); err != nil {
			return nil, err
		}
		if err := enc.Encode(commentToDoc(&comments[i])); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// BulkSyncComments indexes a batch of live comments.
func BulkSyncComments(ctx context.Context, index string, comments []model.Comment) (success, failed int, err error) {
	if len(comments) == 0 {
		return 0, 0, nil
	}

	body, err := bulkBody(index, comments)
	if err != nil {
		return 0, len(comments), err
	}

	resp, err := Bulk(ctx, body)
	if err != nil {
		return 0, len(comments), err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, len(comments), fmt.Errorf("bulk failed: %s", resp.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				Status int `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return 0, len(comments), fmt.Errorf("decode bulk response: %w", err)
	}

	for _, item := range bulkResp.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			success++
		} else {
			failed++
		}
	}

	logger.Info("Bulk sync to ES completed", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed, nil
}
