package datasource

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"remark-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(url, method string) *config.OperationConfig {
	return &config.OperationConfig{
		URL:      url,
		Method:   method,
		IDStyle:  config.IDStylePath,
		Encoding: config.EncodingJSON,
	}
}

func dataSource(remote config.RemoteConfig) *config.DataSourceConfig {
	return &config.DataSourceConfig{
		Enabled: true,
		Timeout: 5,
		Retry:   config.RetryConfig{MaxAttempts: 3, InitialDelayMs: 1},
		Remote:  remote,
	}
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestComments_StreamsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "post-1", r.URL.Query().Get("threadId"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `[
			{"id": 1, "threadId": "post-1", "parentId": null, "body": "hi", "authorId": 7, "createdAt": "2024-05-01T10:00:00Z"},
			{"id": "2", "parentId": "1", "body": "re", "authorId": "8", "createdAt": "2024-05-01T10:05:00Z", "updatedAt": "2024-05-01T11:00:00Z", "deleted": false}
		]`)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL+"/comments", http.MethodGet)},
	}))

	comments := collect(t, a.Comments(context.Background(), "post-1"))
	require.Len(t, comments, 2)

	assert.Equal(t, "1", comments[0].ID)
	assert.Equal(t, "7", comments[0].AuthorID)
	assert.Empty(t, comments[0].ParentID)
	assert.Equal(t, comments[0].CreatedAt, comments[0].UpdatedAt)

	assert.Equal(t, "post-1", comments[1].ThreadID)
	assert.Equal(t, "1", comments[1].ParentID)
	assert.True(t, comments[1].UpdatedAt.After(comments[1].CreatedAt))
}

func TestRead_IsOneShot(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `[{"id":"1"}]`)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL, http.MethodGet)},
	}))
	seq := a.Read(context.Background(), EntityComments, nil)
	assert.Zero(t, hits.Load(), "nothing is sent before iteration")

	assert.Len(t, collect(t, seq), 1)
	for _, err := range seq {
		assert.ErrorIs(t, err, ErrConsumed)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestRead_StopsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"1"},{"id":"2"},{"id":"3"}]`)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL, http.MethodGet)},
	}))
	var got []string
	for c, err := range a.Comments(context.Background(), "") {
		require.NoError(t, err)
		got = append(got, c.ID)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestUsers_SchemaMappingAndRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("uid"))
		_, _ = io.WriteString(w, `{"hasMore": false, "meta": {"a": [1,2]}, "users": [
			{"uid": 3, "name": "carol", "username": "ignored", "avatar": "https://x/3.png", "avatarType": "circle"}
		]}`)
	}))
	defer srv.Close()

	readUsers := op(srv.URL+"/users", http.MethodGet)
	readUsers.Schema = &config.SchemaConfig{
		DataSchema: map[string]string{"username": "name", "ID": "uid"},
		Root:       "users",
	}
	a := New(dataSource(config.RemoteConfig{Users: config.EntityConfig{Read: readUsers}}))

	users := collect(t, a.Users(context.Background(), Filter{"id": "3"}))
	require.Len(t, users, 1)
	assert.Equal(t, User{ID: "3", Username: "carol", Avatar: "https://x/3.png", AvatarType: AvatarCircle}, users[0])
}

func TestRead_ObjectWithoutRootFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"comments": []}`)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL, http.MethodGet)},
	}))
	for _, err := range a.Read(context.Background(), EntityComments, nil) {
		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.ErrorIs(t, err, errNotArray)
	}
}

func TestUnconfiguredOperation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL, http.MethodGet)},
	}))

	_, err := a.CreateComment(context.Background(), CommentDraft{Body: "x"})
	assert.ErrorIs(t, err, ErrNotSupported)
	_, err = a.UpdateComment(context.Background(), "1", "x")
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.ErrorIs(t, a.DeleteReaction(context.Background(), "1"), ErrNotSupported)
	for _, err := range a.Users(context.Background(), nil) {
		assert.ErrorIs(t, err, ErrNotSupported)
	}
	assert.False(t, a.Supports(EntityReactions, OpCreate))
	assert.True(t, a.Supports(EntityComments, OpRead))
	assert.Zero(t, hits.Load())
}

func TestCreateComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "1", r.Header.Get(ActorHeader))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["body"])
		assert.Equal(t, "1", body["authorId"])
		assert.Equal(t, "t", body["threadId"])
		assert.NotContains(t, body, "parentId")

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 42, "parentId": null, "body": "hello", "authorId": "1"}`)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Create: op(srv.URL, http.MethodPost)},
	}), WithActor("1"))

	c, err := a.CreateComment(context.Background(), CommentDraft{ThreadID: "t", AuthorID: "1", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "42", c.ID)
	assert.Equal(t, "t", c.ThreadID)
	assert.Empty(t, c.ParentID)
	assert.Equal(t, "hello", c.Body)
}

func TestCreate_FormEncodingAndNonObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "like", r.PostForm.Get("type"))
		assert.Equal(t, "9", r.PostForm.Get("commentId"))
		_, _ = io.WriteString(w, `true`)
	}))
	defer srv.Close()

	create := op(srv.URL, http.MethodPost)
	create.Encoding = config.EncodingForm
	create.Schema = &config.SchemaConfig{DataSchema: map[string]string{"kind": "type"}}
	a := New(dataSource(config.RemoteConfig{Reactions: config.EntityConfig{Create: create}}))

	_, err := a.CreateReaction(context.Background(), ReactionDraft{CommentID: "9", UserID: "1", Kind: "like"})
	assert.ErrorIs(t, err, ErrInvalidRecord, "a response without an id cannot identify the reaction")
}

func TestCreate_NotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Create: op(srv.URL, http.MethodPost)},
	}))
	_, err := a.CreateComment(context.Background(), CommentDraft{Body: "x"})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusServiceUnavailable, remoteErr.StatusCode)
	assert.Equal(t, "try later", remoteErr.Body)
	assert.Equal(t, int32(1), hits.Load())
}

func TestUpdate_PatchAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		switch r.URL.Path {
		case "/comments/42":
			_, _ = io.WriteString(w, `{"id":"42","body":"bye","updatedAt":"2024-05-02T00:00:00Z"}`)
		default:
			http.Error(w, `{"detail":"Comment not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Update: op(srv.URL+"/comments/", http.MethodPatch)},
	}))

	c, err := a.UpdateComment(context.Background(), "42", "bye")
	require.NoError(t, err)
	assert.Equal(t, "bye", c.Body)
	assert.Equal(t, 2024, c.UpdatedAt.Year())

	_, err = a.UpdateComment(context.Background(), "404", "bye")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestDelete_QueryStyleIdempotentAndRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Query().Get("id") {
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		case "flaky":
			if n == 2 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	del := op(srv.URL+"/comments", http.MethodDelete)
	del.IDStyle = config.IDStyleQuery
	a := New(dataSource(config.RemoteConfig{Comments: config.EntityConfig{Delete: del}}))

	require.NoError(t, a.DeleteComment(context.Background(), "gone"))
	require.NoError(t, a.DeleteComment(context.Background(), "flaky"))
	assert.Equal(t, int32(3), hits.Load())
}

func TestDelete_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	a := New(dataSource(config.RemoteConfig{
		Reactions: config.EntityConfig{Delete: op(srv.URL, http.MethodDelete)},
	}))
	err := a.DeleteReaction(context.Background(), "r1")
	assert.Equal(t, http.StatusGatewayTimeout, StatusCode(err))
	assert.Equal(t, int32(3), hits.Load())
}

func TestRead_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := dataSource(config.RemoteConfig{Comments: config.EntityConfig{Read: op(url, http.MethodGet)}})
	cfg.Retry.MaxAttempts = 2
	a := New(cfg)

	for _, err := range a.Comments(context.Background(), "t") {
		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Zero(t, remoteErr.StatusCode)
		assert.NotNil(t, remoteErr.Err)
	}
}

func TestRead_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	a := New(dataSource(config.RemoteConfig{
		Comments: config.EntityConfig{Read: op(srv.URL, http.MethodGet)},
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for _, err := range a.Comments(ctx, "t") {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
}
