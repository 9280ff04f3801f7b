package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeThread = "thread"
	ModeFlat   = "flat"

	AvatarSquare = "square"
	AvatarCircle = "circle"

	IDStylePath  = "path"
	IDStyleQuery = "query"

	EncodingJSON = "json"
	EncodingForm = "form"
)

// WidgetConfig configures the comment-thread client. Its remote section keeps
// the shape of the widget's dataSource.remote option: one block per entity,
// one optional block per operation.
type WidgetConfig struct {
	DataSource    DataSourceConfig `mapstructure:"data_source"`
	Editor        EditorConfig     `mapstructure:"editor"`
	CommentMode   string           `mapstructure:"comment_mode"`
	UserInfo      UserInfo         `mapstructure:"user_info"`
	ReactionKinds []string         `mapstructure:"reaction_kinds"`
	Log           LogConfig        `mapstructure:"log"`
}

type DataSourceConfig struct {
	Enabled       bool         `mapstructure:"enabled"`
	Timeout       int          `mapstructure:"timeout"` // seconds
	UserCacheSize int          `mapstructure:"user_cache_size"`
	Retry         RetryConfig  `mapstructure:"retry"`
	Remote        RemoteConfig `mapstructure:"remote"`
}

// TimeoutDuration is the per-request HTTP timeout.
func (d *DataSourceConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// RetryConfig applies to idempotent operations only (read, delete).
type RetryConfig struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	InitialDelayMs int `mapstructure:"initial_delay_ms"`
}

func (r *RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

type RemoteConfig struct {
	Comments  EntityConfig `mapstructure:"comments"`
	Users     EntityConfig `mapstructure:"users"`
	Reactions EntityConfig `mapstructure:"reactions"`
}

// EntityConfig holds the operations enabled for one entity. A nil operation
// is disabled.
type EntityConfig struct {
	Read   *OperationConfig `mapstructure:"read"`
	Create *OperationConfig `mapstructure:"create"`
	Update *OperationConfig `mapstructure:"update"`
	Delete *OperationConfig `mapstructure:"delete"`
}

type OperationConfig struct {
	URL      string        `mapstructure:"url"`
	Method   string        `mapstructure:"method"`
	IDStyle  string        `mapstructure:"id_style"`
	Encoding string        `mapstructure:"encoding"`
	Schema   *SchemaConfig `mapstructure:"schema"`
}

// SchemaConfig describes how remote payloads differ from the canonical
// record shape. DataSchema maps a canonical field to the remote field name;
// canonical keys are matched case-insensitively.
type SchemaConfig struct {
	DataSchema map[string]string `mapstructure:"data_schema"`
	Root       string            `mapstructure:"root"`
	TimeLayout string            `mapstructure:"time_layout"`
}

type EditorConfig struct {
	Height int `mapstructure:"height"`
}

// UserInfo is the identity of the person using the widget.
type UserInfo struct {
	ID         string `mapstructure:"id"`
	Username   string `mapstructure:"username"`
	Avatar     string `mapstructure:"avatar"`
	AvatarType string `mapstructure:"avatar_type"`
	Moderator  bool   `mapstructure:"moderator"`
}

// LoadWidget reads and validates a widget config file.
func LoadWidget(configPath string) (*WidgetConfig, error) {
	_ = godotenv.Load()

	v := newViper(configPath)
	v.SetDefault("data_source.enabled", true)
	v.SetDefault("data_source.timeout", 10)
	v.SetDefault("data_source.user_cache_size", 256)
	v.SetDefault("data_source.retry.max_attempts", 3)
	v.SetDefault("data_source.retry.initial_delay_ms", 200)
	v.SetDefault("editor.height", 150)
	v.SetDefault("comment_mode", ModeThread)
	v.SetDefault("user_info.avatar_type", AvatarSquare)
	v.SetDefault("reaction_kinds", []string{"like", "heart"})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.output", "stderr")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read widget config: %w", err)
	}

	var cfg WidgetConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal widget config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config once so nothing has to be re-checked per call.
// It also fills in per-operation defaults.
func (c *WidgetConfig) Validate() error {
	var errs []error

	if c.Editor.Height <= 0 {
		errs = append(errs, fmt.Errorf("editor.height must be greater than 0"))
	}
	switch c.CommentMode {
	case ModeThread, ModeFlat:
	default:
		errs = append(errs, fmt.Errorf("invalid comment_mode: %q (must be %q or %q)", c.CommentMode, ModeThread, ModeFlat))
	}

	if c.UserInfo.ID == "" {
		errs = append(errs, fmt.Errorf("user_info.id is required"))
	}
	switch c.UserInfo.AvatarType {
	case AvatarSquare, AvatarCircle:
	default:
		errs = append(errs, fmt.Errorf("invalid user_info.avatar_type: %q", c.UserInfo.AvatarType))
	}

	if len(c.ReactionKinds) == 0 {
		errs = append(errs, fmt.Errorf("reaction_kinds must not be empty"))
	}
	seen := make(map[string]bool, len(c.ReactionKinds))
	for _, k := range c.ReactionKinds {
		if k == "" || seen[k] {
			errs = append(errs, fmt.Errorf("reaction_kinds contains an empty or duplicate kind %q", k))
		}
		seen[k] = true
	}

	if c.DataSource.Timeout <= 0 {
		c.DataSource.Timeout = 10
	}
	if c.DataSource.UserCacheSize <= 0 {
		c.DataSource.UserCacheSize = 256
	}
	if c.DataSource.Retry.MaxAttempts <= 0 {
		c.DataSource.Retry.MaxAttempts = 1
	}
	if c.DataSource.Retry.InitialDelayMs < 0 {
		c.DataSource.Retry.InitialDelayMs = 0
	}

	if c.DataSource.Enabled {
		if c.DataSource.Remote.Comments.Read == nil {
			errs = append(errs, fmt.Errorf("data_source.remote.comments.read is required"))
		}
		errs = append(errs, c.DataSource.Remote.Comments.validate("comments")...)
		errs = append(errs, c.DataSource.Remote.Users.validate("users")...)
		errs = append(errs, c.DataSource.Remote.Reactions.validate("reactions")...)
		if c.DataSource.Remote.Users.Update != nil || c.DataSource.Remote.Users.Create != nil || c.DataSource.Remote.Users.Delete != nil {
			errs = append(errs, fmt.Errorf("data_source.remote.users supports read only"))
		}
		if c.DataSource.Remote.Reactions.Update != nil {
			errs = append(errs, fmt.Errorf("data_source.remote.reactions does not support update"))
		}
	}

	return errors.Join(errs...)
}

func (e *EntityConfig) validate(entity string) []error {
	var errs []error
	ops := []struct {
		name          string
		op            *OperationConfig
		defaultMethod string
		methods       []string
	}{
		{"read", e.Read, http.MethodGet, []string{http.MethodGet}},
		{"create", e.Create, http.MethodPost, []string{http.MethodPost, http.MethodPut}},
		{"update", e.Update, http.MethodPut, []string{http.MethodPut, http.MethodPatch, http.MethodPost}},
		{"delete", e.Delete, http.MethodDelete, []string{http.MethodDelete, http.MethodPost}},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		prefix := fmt.Sprintf("data_source.remote.%s.%s", entity, o.name)
		if err := o.op.normalize(o.defaultMethod, o.methods); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}
	return errs
}

func (o *OperationConfig) normalize(defaultMethod string, allowed []string) error {
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", o.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http(s) url", o.URL)
	}

	o.Method = strings.ToUpper(strings.TrimSpace(o.Method))
	if o.Method == "" {
		o.Method = defaultMethod
	}
	ok := false
	for _, m := range allowed {
		if m == o.Method {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("method %s not allowed (allowed: %s)", o.Method, strings.Join(allowed, ", "))
	}

	switch o.IDStyle {
	case "":
		o.IDStyle = IDStylePath
	case IDStylePath, IDStyleQuery:
	default:
		return fmt.Errorf("invalid id_style %q", o.IDStyle)
	}

	switch o.Encoding {
	case "":
		o.Encoding = EncodingJSON
	case EncodingJSON, EncodingForm:
	default:
		return fmt.Errorf("invalid encoding %q", o.Encoding)
	}
	return nil
}
