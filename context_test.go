package postboard

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Title string `json:"title"`
}

func TestContext_GetRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		body        string
		expectError bool
		expected    bindTarget
	}{
		{name: "valid body", body: `{"title":"hi"}`, expected: bindTarget{Title: "hi"}},
		{name: "malformed body", body: `{"title":`, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var got bindTarget
			err := NewContext(c, nil).GetRequest(&got)

			if tt.expectError {
				assert.ErrorIs(t, err, ValidationError)
				var apiErr ApiError
				require.ErrorAs(t, err, &apiErr)
				assert.True(t, strings.HasPrefix(apiErr.Message, "invalid request body: "))
				assert.NotNil(t, apiErr.Unwrap())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestContext_LoggerCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(RequestIDKey, "abc")
	ctx := NewContext(c, logger)

	assert.Equal(t, "abc", ctx.RequestID())
	ctx.Logger().Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
}

func TestContext_SendError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewContext(c, nil).SendError(ValidationError.New("title"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
