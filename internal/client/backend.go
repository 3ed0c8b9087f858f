package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
)

// Backend is the remote post store as the client sees it.
type Backend interface {
	List(ctx context.Context) ([]model.Post, error)
	Create(ctx context.Context, req model.CreatePostRequest) (model.Post, error)
}

// HTTPBackend talks to the store's JSON API. Calls are bounded only by ctx.
type HTTPBackend struct {
	Client  *http.Client
	BaseURL string
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (b *HTTPBackend) List(ctx context.Context) ([]model.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"/posts", nil)
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	if err := b.do(req, http.StatusOK, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

func (b *HTTPBackend) Create(ctx context.Context, in model.CreatePostRequest) (model.Post, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return model.Post{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/posts", bytes.NewReader(payload))
	if err != nil {
		return model.Post{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var post model.Post
	if err := b.do(req, http.StatusCreated, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// do maps transport failures to StoreUnavailableError and error bodies back to
// the ApiError the server sent.
func (b *HTTPBackend) do(req *http.Request, want int, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := b.Client.Do(req)
	if err != nil {
		return postboard.StoreUnavailableError.Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return postboard.StoreUnavailableError.Wrap(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != want {
		var apiErr postboard.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorCode != "" {
			return apiErr.AsApiError(resp.StatusCode)
		}
		return postboard.StoreUnavailableError.Wrap(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return postboard.StoreUnavailableError.Wrap(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
