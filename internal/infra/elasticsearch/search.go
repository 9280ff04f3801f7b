package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// CommentIndex searches one comment index.
type CommentIndex struct {
	Name string
}

// buildCommentQuery matches q against bodies, optionally within one thread,
// best match first.
func buildCommentQuery(q, threadID string, limit int) map[string]interface{} {
	boolQ := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{
					"body": map[string]interface{}{
						"query":     q,
						"operator":  "and",
						"fuzziness": "AUTO",
					},
				},
			},
		},
	}
	if threadID != "" {
		boolQ["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"thread_id": threadID}},
		}
	}

	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQ},
		"_source": []string{"id"},
		"size":    limit,
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]string{"order": "desc"}},
			map[string]interface{}{"created_at": map[string]string{"order": "desc"}},
		},
	}
}

// SearchComments returns the ids of matching comments by relevance.
func (ix CommentIndex) SearchComments(ctx context.Context, q, threadID string, limit int) ([]int64, error) {
	queryJSON, err := json.Marshal(buildCommentQuery(q, threadID, limit))
	if err != nil {
		return nil, err
	}

	resp, err := Search(ctx, ix.Name, bytes.NewReader(queryJSON))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("ES search error: %s", resp.String())
	}

	var esResp struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&esResp); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}
