package datasource

import (
	"context"
	"fmt"
	"iter"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// UserReader is the read side of the users entity.
type UserReader interface {
	Users(ctx context.Context, filter Filter) iter.Seq2[User, error]
}

// Directory resolves user ids to users through a bounded cache. Users are
// read-only for the widget, so entries are never invalidated, only evicted.
type Directory struct {
	src   UserReader
	cache *lru.Cache[string, User]
	log   *zap.Logger
}

func NewDirectory(src UserReader, size int, log *zap.Logger) (*Directory, error) {
	cache, err := lru.New[string, User](max(size, 1))
	if err != nil {
		return nil, fmt.Errorf("create user cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{src: src, cache: cache, log: log.Named("directory")}, nil
}

// Lookup returns the user with id, asking the remote on a cache miss.
func (d *Directory) Lookup(ctx context.Context, id string) (User, error) {
	if u, ok := d.cache.Get(id); ok {
		return u, nil
	}

	for u, err := range d.src.Users(ctx, Filter{"id": id}) {
		if err != nil {
			return User{}, err
		}
		d.cache.Add(u.ID, u)
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// Prefetch warms the cache with an unfiltered read of the users collection.
func (d *Directory) Prefetch(ctx context.Context) (int, error) {
	n := 0
	for u, err := range d.src.Users(ctx, nil) {
		if err != nil {
			return n, err
		}
		d.cache.Add(u.ID, u)
		n++
	}
	d.log.Debug("user directory prefetched", zap.Int("users", n))
	return n, nil
}

// DisplayName returns the username for id, or id itself when it cannot be
// resolved.
func (d *Directory) DisplayName(ctx context.Context, id string) string {
	u, err := d.Lookup(ctx, id)
	if err != nil || u.Username == "" {
		if err != nil {
			d.log.Debug("user lookup failed", zap.String("id", id), zap.Error(err))
		}
		return id
	}
	return u.Username
}
