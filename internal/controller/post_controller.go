package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/service"
)

const postsCacheTag = "posts"

type PostController struct {
	postService *service.PostService
	cache       postboard.CacheService
	cacheTTL    time.Duration
}

// NewPostController wires the post routes. A nil cache or a zero ttl disables
// list caching, and so does a backend shared with other processes: their
// creates neither move this service's Version nor reach this cache.
func NewPostController(postService *service.PostService, cache postboard.CacheService, cacheTTL time.Duration) *PostController {
	return &PostController{
		postService: postService,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

func (c *PostController) Register(group *postboard.ControllerGroup) {
	var listMiddleware []gin.HandlerFunc
	if c.CachesList() {
		listMiddleware = append(listMiddleware, postboard.CacheMiddleware(c.cache, c.cacheTTL,
			c.cacheTags, postboard.VersionedKey(postsCacheTag, c.postService.Version)))
	}
	group.GET("", c.GetPosts, listMiddleware...)
	group.POST("", c.CreatePost)
}

func (c *PostController) GetPosts(ctx *postboard.Context) ([]model.Post, error) {
	posts, err := c.postService.List(ctx.Request.Context())
	if err != nil {
		ctx.Logger().Warn("list posts failed", "err", err)
		return nil, err
	}
	return posts, nil
}

func (c *PostController) CreatePost(ctx *postboard.Context, req model.CreatePostRequest) (model.Post, error) {
	post, err := c.postService.Create(ctx.Request.Context(), req.Title, req.Body, req.Author)
	if err != nil {
		ctx.Logger().Warn("create post failed", "err", err)
		return model.Post{}, err
	}

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx.Request.Context(), postsCacheTag); err != nil {
			ctx.Logger().Warn("invalidate posts cache", "err", err)
		}
	}

	ctx.Status(http.StatusCreated)
	return post, nil
}

func (c *PostController) CachesList() bool {
	return c.cache != nil && c.cacheTTL > 0 && c.postService.Exclusive()
}

func (c *PostController) cacheTags(*gin.Context) []string {
	return []string{postsCacheTag}
}
