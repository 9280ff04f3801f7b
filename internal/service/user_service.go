package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"remark-go/internal/api/dto"
	"remark-go/internal/model"
	"remark-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrInvalidAvatar  = errors.New("avatar must be an image of at most 2 MiB")
)

const maxAvatarSize = 2 << 20

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]model.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) error
}

// Cache stores JSON values with a TTL. The redis infra package implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AvatarStore uploads an avatar image and returns its public URL.
type AvatarStore interface {
	PutAvatar(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}

type UserService struct {
	users   UserStore
	cache   Cache
	avatars AvatarStore
	ttl     time.Duration
}

// NewUserService wires the user use cases. cache and avatars may be nil.
func NewUserService(users UserStore, cache Cache, avatars AvatarStore, ttl time.Duration) *UserService {
	return &UserService{users: users, cache: cache, avatars: avatars, ttl: ttl}
}

// List returns all users, or the single user named by the id filter. An
// unknown id yields an empty list.
func (s *UserService) List(ctx context.Context, q *dto.UserListQuery) ([]dto.UserInfo, error) {
	if strings.TrimSpace(q.ID) != "" {
		id, err := ParseID(q.ID)
		if err != nil {
			return []dto.UserInfo{}, nil
		}
		user, err := s.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return []dto.UserInfo{}, nil
			}
			return nil, err
		}
		return []dto.UserInfo{*toUserInfo(user)}, nil
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserInfo, 0, len(users))
	for i := range users {
		items = append(items, *toUserInfo(&users[i]))
	}
	return items, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*dto.UserInfo, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// GetUser reads a user through the cache.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	key := userCacheKey(id)
	if s.cache != nil {
		var cached model.User
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Warn("User cache read failed", zap.Int64("user_id", id), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, user, s.ttl); err != nil {
			logger.Warn("User cache write failed", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return user, nil
}

// Create seeds a user.
func (s *UserService) Create(ctx context.Context, req *dto.UserCreateRequest) (*dto.UserInfo, error) {
	username := strings.TrimSpace(req.Username)
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	user := &model.User{
		Username:   username,
		Avatar:     req.Avatar,
		AvatarType: req.AvatarType,
		Role:       req.Role,
	}
	if user.AvatarType == "" {
		user.AvatarType = model.AvatarSquare
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// UploadAvatar stores an image for userID and points the user at it. Users
// may only change their own avatar unless they are moderators.
func (s *UserService) UploadAvatar(ctx context.Context, actorID, userID int64, filename string, r io.Reader, size int64, contentType string) (*dto.UserInfo, error) {
	if actorID == 0 {
		return nil, ErrActorRequired
	}
	if s.avatars == nil {
		return nil, errors.New("avatar storage is not configured")
	}
	if size <= 0 || size > maxAvatarSize || !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidAvatar
	}

	if actorID != userID {
		actor, err := s.GetUser(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if !actor.IsModerator() {
			return nil, ErrNoPermission
		}
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.avatars.PutAvatar(ctx, objectName, r, size, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, userCacheKey(userID)); err != nil {
			logger.Warn("User cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	logger.Info("Avatar uploaded", zap.Int64("user_id", userID), zap.String("object", objectName))
	return s.Get(ctx, userID)
}

func userCacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}
