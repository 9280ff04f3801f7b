package datasource

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users   []User
	err     error
	filters []Filter
}

func (s *stubUsers) Users(_ context.Context, filter Filter) iter.Seq2[User, error] {
	s.filters = append(s.filters, filter)
	return func(yield func(User, error) bool) {
		if s.err != nil {
			yield(User{}, s.err)
			return
		}
		for _, u := range s.users {
			if id := filter["id"]; id != "" && u.ID != id {
				continue
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

func TestDirectory_LookupCaches(t *testing.T) {
	src := &stubUsers{users: []User{{ID: "1", Username: "ana"}, {ID: "2", Username: "bo"}}}
	d, err := NewDirectory(src, 8, nil)
	require.NoError(t, err)

	u, err := d.Lookup(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = d.Lookup(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, src.filters, 1)
	assert.Equal(t, Filter{"id": "1"}, src.filters[0])

	_, err = d.Lookup(context.Background(), "9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_PrefetchAndDisplayName(t *testing.T) {
	src := &stubUsers{users: []User{{ID: "1", Username: "ana"}, {ID: "2"}}}
	d, err := NewDirectory(src, 8, nil)
	require.NoError(t, err)

	n, err := d.Prefetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "ana", d.DisplayName(context.Background(), "1"))
	assert.Equal(t, "2", d.DisplayName(context.Background(), "2"), "empty username falls back to the id")
	assert.Len(t, src.filters, 1, "prefetched users are served from the cache")

	src.err = errors.New("offline")
	assert.Equal(t, "7", d.DisplayName(context.Background(), "7"))
}

func TestDirectory_Evicts(t *testing.T) {
	src := &stubUsers{users: []User{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	d, err := NewDirectory(src, 2, nil)
	require.NoError(t, err)

	for _, id := range []string{"1", "2", "3", "1"} {
		_, err := d.Lookup(context.Background(), id)
		require.NoError(t, err)
	}
	assert.Len(t, src.filters, 4, "the oldest entry was evicted")
}

func TestRecordStream(t *testing.T) {
	cases := []struct {
		name string
		body string
		root string
		ids  []string
		err  bool
	}{
		{name: "array", body: `[{"id":"a"},{"id":"b"}]`, ids: []string{"a", "b"}},
		{name: "empty array", body: `[]`},
		{name: "null", body: `null`},
		{name: "empty body", body: ``},
		{name: "wrapped", body: `{"total":2,"items":[{"id":"a"}],"next":null}`, root: "items", ids: []string{"a"}},
		{name: "wrapped null", body: `{"items":null}`, root: "items"},
		{name: "missing root", body: `{"other":[]}`, root: "items"},
		{name: "object without root", body: `{"items":[]}`, err: true},
		{name: "scalar", body: `42`, err: true},
		{name: "truncated", body: `[{"id":"a"},{"id":`, ids: []string{"a"}, err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSchema(EntityComments, nil)
			s.root = tc.root
			rs := newRecordStream(strings.NewReader(tc.body), s)

			var ids []string
			var gotErr error
			for {
				rec, err := rs.next()
				if err != nil {
					if !errors.Is(err, io.EOF) {
						gotErr = err
					}
					break
				}
				ids = append(ids, stringField(rec, "id"))
			}
			assert.Equal(t, tc.ids, ids)
			if tc.err {
				assert.Error(t, gotErr)
			} else {
				assert.NoError(t, gotErr)
			}
		})
	}
}
