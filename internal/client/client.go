// Package client is the presentation side of the post board: a disposable
// snapshot of the store's posts plus the state of the creation form.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/service"
)

type ListState int

const (
	ListIdle ListState = iota
	ListLoading
	ListLoaded
	ListLoadFailed
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListLoadFailed:
		return "load_failed"
	default:
		return "idle"
	}
}

type FormState int

const (
	FormClosed FormState = iota
	FormOpen
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormOpen:
		return "open"
	case FormSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Form holds the creation form's field values.
type Form struct {
	Title  string
	Body   string
	Author string
}

var (
	ErrFormClosed     = errors.New("form is not open")
	ErrFormSubmitting = errors.New("form is being submitted")
)

// Client owns no durable state. Its snapshot is whatever the most recently
// completed successful list returned; it is never edited locally.
type Client struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	posts     []model.Post
	listState ListState
	listErr   error
	formState FormState
	form      Form
	formErr   error
}

func New(backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, logger: logger, posts: []model.Post{}}
}

// Load fetches the post list. On failure the previous snapshot stays in place
// and the error is logged and returned.
func (c *Client) Load(ctx context.Context) error {
	c.mu.Lock()
	c.listState = ListLoading
	c.mu.Unlock()

	posts, err := c.backend.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.listState = ListLoadFailed
		c.listErr = err
		c.logger.Error("error fetching posts", "err", err)
		return err
	}
	c.posts = posts
	c.listState = ListLoaded
	c.listErr = nil
	return nil
}

// Snapshot returns a copy of the cached posts in store order.
func (c *Client) Snapshot() []model.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

func (c *Client) ListState() (ListState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listState, c.listErr
}

func (c *Client) OpenForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.formState == FormClosed {
		c.formState = FormOpen
		c.formErr = nil
	}
}

// CloseForm dismisses the form, keeping its values. It has no effect while submitting.
func (c *Client) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.formState == FormOpen {
		c.formState = FormClosed
	}
}

// SetForm replaces the field values of an open form.
func (c *Client) SetForm(f Form) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.formState {
	case FormClosed:
		return ErrFormClosed
	case FormSubmitting:
		return ErrFormSubmitting
	}
	c.form = f
	return nil
}

func (c *Client) Form() (FormState, Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formState, c.form, c.formErr
}

// Submit sends the open form to the store. Empty fields are rejected before any
// call is made. On success the form closes, its values clear and the list is
// reloaded; a failed reload is reported through ListState, not here. On failure
// the form reopens with the entered values.
func (c *Client) Submit(ctx context.Context) (model.Post, error) {
	c.mu.Lock()
	switch c.formState {
	case FormClosed:
		c.mu.Unlock()
		return model.Post{}, ErrFormClosed
	case FormSubmitting:
		c.mu.Unlock()
		return model.Post{}, ErrFormSubmitting
	}
	form := c.form
	if err := service.Validate(form.Title, form.Body, form.Author); err != nil {
		c.formErr = err
		c.mu.Unlock()
		return model.Post{}, err
	}
	c.formState = FormSubmitting
	c.formErr = nil
	c.mu.Unlock()

	post, err := c.backend.Create(ctx, model.CreatePostRequest{
		Title:  form.Title,
		Body:   form.Body,
		Author: form.Author,
	})

	c.mu.Lock()
	if err != nil {
		c.formState = FormOpen
		c.formErr = err
		c.mu.Unlock()
		c.logger.Error("error creating post", "err", err)
		return model.Post{}, err
	}
	c.formState = FormClosed
	c.form = Form{}
	c.mu.Unlock()

	_ = c.Load(ctx)
	return post, nil
}
