// Package datasource turns the widget's CRUD operations on comments, users
// and reactions into HTTP calls against the configured remote URLs.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"remark-go/internal/config"

	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// ActorHeader carries the current user's id so the remote can authorise
// edits and deletes.
const ActorHeader = "X-User-Id"

type operation struct {
	url      string
	method   string
	idStyle  string
	encoding string
	schema   *schema
}

// Adapter is safe for concurrent use.
type Adapter struct {
	client      *http.Client
	ops         map[Entity]map[Operation]*operation
	retryPolicy retryPolicy
	actor       string
	log         *zap.Logger
}

type Option func(*Adapter)

// WithHTTPClient replaces the default client (which only sets a timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.log = l.Named("datasource") }
}

// WithActor sends id in ActorHeader on every request.
func WithActor(id string) Option {
	return func(a *Adapter) { a.actor = id }
}

// New builds an adapter from a validated data source config. Operations
// missing from the config are disabled and fail with ErrNotSupported.
func New(cfg *config.DataSourceConfig, opts ...Option) *Adapter {
	a := &Adapter{
		client: &http.Client{Timeout: cfg.TimeoutDuration()},
		ops:    make(map[Entity]map[Operation]*operation),
		retryPolicy: retryPolicy{
			maxAttempts:  max(cfg.Retry.MaxAttempts, 1),
			initialDelay: cfg.Retry.InitialDelay(),
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if !cfg.Enabled {
		return a
	}
	a.register(EntityComments, &cfg.Remote.Comments)
	a.register(EntityUsers, &cfg.Remote.Users)
	a.register(EntityReactions, &cfg.Remote.Reactions)
	return a
}

func (a *Adapter) register(entity Entity, ec *config.EntityConfig) {
	ops := make(map[Operation]*operation)
	for name, oc := range map[Operation]*config.OperationConfig{
		OpRead:   ec.Read,
		OpCreate: ec.Create,
		OpUpdate: ec.Update,
		OpDelete: ec.Delete,
	} {
		if oc == nil {
			continue
		}
		ops[name] = &operation{
			url:      oc.URL,
			method:   oc.Method,
			idStyle:  oc.IDStyle,
			encoding: oc.Encoding,
			schema:   newSchema(entity, oc.Schema),
		}
	}
	a.ops[entity] = ops
}

// Supports reports whether op is configured for entity.
func (a *Adapter) Supports(entity Entity, op Operation) bool {
	_, ok := a.ops[entity][op]
	return ok
}

func (a *Adapter) operation(entity Entity, op Operation) (*operation, error) {
	o, ok := a.ops[entity][op]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", op, entity, ErrNotSupported)
	}
	return o, nil
}

// Read fetches the records of entity matching filter. The sequence is lazy:
// the request is sent when iteration starts and elements are decoded as they
// are consumed. It can be iterated once.
func (a *Adapter) Read(ctx context.Context, entity Entity, filter Filter) iter.Seq2[Record, error] {
	var consumed atomic.Bool
	return func(yield func(Record, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, fmt.Errorf("read %s: %w", entity, ErrConsumed))
			return
		}

		o, err := a.operation(entity, OpRead)
		if err != nil {
			yield(nil, err)
			return
		}
		opName := fmt.Sprintf("read %s", entity)

		query := url.Values{}
		for k, v := range filter {
			query.Set(o.schema.remoteName(k), v)
		}

		var resp *http.Response
		err = a.retry(ctx, opName, func() error {
			req, err := a.newRequest(ctx, o, o.url, query, nil)
			if err != nil {
				return &RemoteError{Op: opName, Err: err}
			}
			resp, err = a.do(req, opName)
			return err
		})
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		stream := newRecordStream(resp.Body, o.schema)
		for {
			rec, err := stream.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, &RemoteError{Op: opName, StatusCode: resp.StatusCode, Err: err})
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Create sends payload and returns the created record, including the id the
// remote assigned.
func (a *Adapter) Create(ctx context.Context, entity Entity, payload Record) (Record, error) {
	o, err := a.operation(entity, OpCreate)
	if err != nil {
		return nil, err
	}
	opName := fmt.Sprintf("create %s", entity)

	req, err := a.newRequest(ctx, o, o.url, nil, o.schema.encode(payload))
	if err != nil {
		return nil, &RemoteError{Op: opName, Err: err}
	}
	resp, err := a.do(req, opName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeOne(resp, o.schema, opName)
}

// Update applies patch to the record with id. An id unknown to the remote
// yields an error matching ErrNotFound.
func (a *Adapter) Update(ctx context.Context, entity Entity, id string, patch Record) (Record, error) {
	o, err := a.operation(entity, OpUpdate)
	if err != nil {
		return nil, err
	}
	opName := fmt.Sprintf("update %s %s", entity, id)

	target, query := o.target(id)
	req, err := a.newRequest(ctx, o, target, query, o.schema.encode(patch))
	if err != nil {
		return nil, &RemoteError{Op: opName, Err: err}
	}
	resp, err := a.do(req, opName)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	return decodeOne(resp, o.schema, opName)
}

// Delete removes the record with id. Deleting a record the remote no longer
// has is not an error.
func (a *Adapter) Delete(ctx context.Context, entity Entity, id string) error {
	o, err := a.operation(entity, OpDelete)
	if err != nil {
		return err
	}
	opName := fmt.Sprintf("delete %s %s", entity, id)

	target, query := o.target(id)
	err = a.retry(ctx, opName, func() error {
		req, err := a.newRequest(ctx, o, target, query, nil)
		if err != nil {
			return &RemoteError{Op: opName, Err: err}
		}
		resp, err := a.do(req, opName)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Body.Close()
	})
	if StatusCode(err) == http.StatusNotFound {
		a.log.Debug("delete of missing record treated as success",
			zap.String("entity", string(entity)),
			zap.String("id", id),
		)
		return nil
	}
	return err
}

// target places id in the path or the query string as configured.
func (o *operation) target(id string) (string, url.Values) {
	if o.idStyle == config.IDStyleQuery {
		return o.url, url.Values{o.schema.remoteName("id"): {id}}
	}
	return strings.TrimRight(o.url, "/") + "/" + url.PathEscape(id), nil
}

func (a *Adapter) newRequest(ctx context.Context, o *operation, target string, query url.Values, body map[string]any) (*http.Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	contentType := ""
	if body != nil {
		if o.encoding == config.EncodingForm {
			reader = strings.NewReader(formValues(body).Encode())
			contentType = "application/x-www-form-urlencoded"
		} else {
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(buf)
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, o.method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.actor != "" {
		req.Header.Set(ActorHeader, a.actor)
	}
	return req, nil
}

// do sends req and converts every failure into a *RemoteError. On success
// the caller owns resp.Body.
func (a *Adapter) do(req *http.Request, opName string) (*http.Response, error) {
	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: opName, Err: err}
	}

	a.log.Debug("remote call",
		zap.String("op", opName),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteError{
			Op:         opName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

func decodeOne(resp *http.Response, s *schema, opName string) (Record, error) {
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		if err == io.EOF {
			return Record{}, nil
		}
		return nil, &RemoteError{Op: opName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	raw, ok := body.(map[string]any)
	if !ok {
		return Record{}, nil
	}
	return s.decode(raw), nil
}

func formValues(body map[string]any) url.Values {
	values := url.Values{}
	for k, v := range body {
		if v == nil {
			continue
		}
		values.Set(k, fmt.Sprint(v))
	}
	return values
}
