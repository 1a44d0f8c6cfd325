// Package content stores the portal's blog post and application settings.
package content

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/platform/kv"
)

// Store keys for the content documents.
const (
	BlogKey     = "blog"
	SettingsKey = "settings"
)

// Settings keys with typed defaults.
const (
	SettingTheme        = "theme"
	SettingAllowSignups = "allow_signups"
)

var (
	ErrInvalidTheme        = httpx.NewError(httpx.ErrValidation, "theme must be a non-empty string")
	ErrInvalidAllowSignups = httpx.NewError(httpx.ErrValidation, "allow_signups must be a boolean")
)

// Blog is the single blog post shown on the portal.
type Blog struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BlogUpdate carries the blog fields to overwrite.
type BlogUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Settings is the free-form settings document.
type Settings map[string]any

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{SettingTheme: "default", SettingAllowSignups: false}
}

// Service reads and writes the content documents.
type Service struct {
	store kv.Store
	mu    sync.Mutex
}

// NewService constructs a Service over store.
func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

// Blog returns the stored blog post, or an empty one.
func (s *Service) Blog(ctx context.Context) (Blog, error) {
	var blog Blog
	if err := s.store.Get(ctx, BlogKey, &blog); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Blog{}, nil
		}
		return Blog{}, fmt.Errorf("content: load blog: %w", err)
	}
	return blog, nil
}

// UpdateBlog overwrites the fields present in update.
func (s *Service) UpdateBlog(ctx context.Context, update BlogUpdate) (Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blog, err := s.Blog(ctx)
	if err != nil {
		return Blog{}, err
	}
	if update.Title != nil {
		blog.Title = *update.Title
	}
	if update.Content != nil {
		blog.Content = *update.Content
	}
	if err := s.store.Put(ctx, BlogKey, blog); err != nil {
		return Blog{}, fmt.Errorf("content: save blog: %w", err)
	}
	return blog, nil
}

// Settings returns the stored settings merged over the defaults.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	stored := Settings{}
	if err := s.store.Get(ctx, SettingsKey, &stored); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("content: load settings: %w", err)
	}
	out := DefaultSettings()
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// UpdateSettings merges patch into the stored settings. The known keys are
// type checked; every other key is stored as given.
func (s *Service) UpdateSettings(ctx context.Context, patch Settings) (Settings, error) {
	if v, ok := patch[SettingTheme]; ok {
		if theme, isString := v.(string); !isString || theme == "" {
			return nil, ErrInvalidTheme
		}
	}
	if v, ok := patch[SettingAllowSignups]; ok {
		if _, isBool := v.(bool); !isBool {
			return nil, ErrInvalidAllowSignups
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		current[k] = v
	}
	if err := s.store.Put(ctx, SettingsKey, current); err != nil {
		return nil, fmt.Errorf("content: save settings: %w", err)
	}
	return current, nil
}
