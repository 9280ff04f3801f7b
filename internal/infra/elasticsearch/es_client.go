package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"remark-go/internal/config"
	"remark-go/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

var client *elasticsearch.Client

// Init connects the shared client.
func Init(cfg *config.ElasticsearchConfig) error {
	hosts := normalizeHosts(cfg.Hosts)
	if len(hosts) == 0 {
		return fmt.Errorf("elasticsearch hosts is empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     hosts,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	})
	if err != nil {
		return fmt.Errorf("create elasticsearch client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("ping elasticsearch: %s", resp.Status())
	}

	client = es
	logger.Info("Elasticsearch connected", zap.Strings("hosts", hosts))
	return nil
}

// normalizeHosts drops blank entries and gives bare hosts an http scheme.
func normalizeHosts(raw []string) []string {
	hosts := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
			h = "http://" + h
		}
		hosts = append(hosts, strings.TrimRight(h, "/"))
	}
	return hosts
}

// ErrNotInitialized is returned by every call made before Init succeeded.
var ErrNotInitialized = errors.New("elasticsearch client not initialized")

func ready() (*elasticsearch.Client, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	return client, nil
}

// Search runs a query DSL body against index.
func Search(ctx context.Context, index string, body io.Reader) (*esapi.Response, error) {
	es, err := ready()
	if err != nil {
		return nil, err
	}
	return es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(body),
		es.Search.WithTrackTotalHits(false),
	)
}

// Index upserts one document. Comments become searchable on the next
// periodic refresh.
func Index(ctx context.Context, index, id string, body io.Reader) (*esapi.Response, error) {
	es, err := ready()
	if err != nil {
		return nil, err
	}
	return es.Index(index, body,
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(id),
		es.Index.WithRefresh("false"),
	)
}

func Delete(ctx context.Context, index, id string) (*esapi.Response, error) {
	es, err := ready()
	if err != nil {
		return nil, err
	}
	return es.Delete(index, id, es.Delete.WithContext(ctx))
}

func IndicesCreate(ctx context.Context, index string, body io.Reader) (*esapi.Response, error) {
	es, err := ready()
	if err != nil {
		return nil, err
	}
	return es.Indices.Create(index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(body),
	)
}

func IndicesExists(ctx context.Context, index string) (bool, error) {
	es, err := ready()
	if err != nil {
		return false, err
	}
	resp, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("check index %s: %s", index, resp.Status())
	}
}

// Bulk sends an NDJSON bulk body.
func Bulk(ctx context.Context, body io.Reader) (*esapi.Response, error) {
	es, err := ready()
	if err != nil {
		return nil, err
	}
	return es.Bulk(body, es.Bulk.WithContext(ctx))
}

func Close() error {
	if client == nil {
		return nil
	}
	client = nil
	logger.Info("Elasticsearch client released")
	return nil
}
