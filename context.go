package postboard

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Context is the per-request handle passed to controller handlers.
type Context struct {
	*gin.Context
	logger *slog.Logger
}

func NewContext(c *gin.Context, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Context: c,
		logger:  logger,
	}
}

// Logger returns the server logger annotated with the request id.
func (c *Context) Logger() *slog.Logger {
	return c.logger.With("request_id", c.RequestID())
}

func (c *Context) RequestID() string {
	return c.GetString(RequestIDKey)
}

// GetRequest binds the request body into request. Bind and validation failures
// are reported as ValidationError so they reach the caller as a 400.
func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBind(request); err != nil {
		bindErr := ValidationError
		bindErr.Message = "invalid request body: " + err.Error()
		bindErr.cause = err
		return bindErr
	}
	return nil
}

func (c *Context) SendError(err error) {
	SendError(c.Context, err)
}
