package postboard

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CacheStatusHeader = "X-Cache"
	cacheHit          = "HIT"
	cacheMiss         = "MISS"
	cacheBypass       = "BYPASS"
)

// CacheKeyGenerator derives the cache key of a request.
type CacheKeyGenerator func(c *gin.Context) string

// TagGenerator lists the invalidation tags a stored response is filed under.
type TagGenerator func(c *gin.Context) []string

// DefaultKeyGenerator hashes the request URL, query included.
func DefaultKeyGenerator(c *gin.Context) string {
	hash := sha256.Sum256([]byte(c.Request.URL.String()))
	return hex.EncodeToString(hash[:])
}

// VersionedKey prefixes the URL hash with name and the current version, so an
// entry stored before the version moved is never looked up again.
func VersionedKey(name string, version func() uint64) CacheKeyGenerator {
	return func(c *gin.Context) string {
		return fmt.Sprintf("%s:v%d:%s", name, version(), DefaultKeyGenerator(c))
	}
}

// capturingWriter tees the body into buf while the handler writes it.
type capturingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// A cached response is stored as its content type, a newline, then the body.
func encodeCachedResponse(contentType string, body []byte) []byte {
	out := make([]byte, 0, len(contentType)+1+len(body))
	out = append(out, contentType...)
	out = append(out, '\n')
	return append(out, body...)
}

func decodeCachedResponse(data []byte) (string, []byte, bool) {
	contentType, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok || len(contentType) == 0 {
		return "", nil, false
	}
	return string(contentType), body, true
}

func hasCacheDirective(header, directive string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), directive) {
			return true
		}
	}
	return false
}

// CacheMiddleware replays stored 200 responses to GET requests and reports the
// outcome in X-Cache. A request with Cache-Control: no-cache skips the lookup
// but refreshes the entry; a response marked no-store is never stored. Lookup
// and store failures degrade to an uncached request.
func CacheMiddleware(service CacheService, ttl time.Duration, tagGen TagGenerator, keyGen CacheKeyGenerator) gin.HandlerFunc {
	if keyGen == nil {
		keyGen = DefaultKeyGenerator
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := keyGen(c)
		status := cacheMiss
		if hasCacheDirective(c.GetHeader("Cache-Control"), "no-cache") {
			status = cacheBypass
		} else if data, err := service.Get(c.Request.Context(), key); err == nil && data != nil {
			if contentType, body, ok := decodeCachedResponse(data); ok {
				c.Header(CacheStatusHeader, cacheHit)
				c.Data(http.StatusOK, contentType, body)
				c.Abort()
				return
			}
		}

		c.Header(CacheStatusHeader, status)
		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		header := writer.Header()
		if writer.Status() != http.StatusOK || hasCacheDirective(header.Get("Cache-Control"), "no-store") {
			return
		}
		contentType := header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(writer.buf.Bytes())
		}
		var tags []string
		if tagGen != nil {
			tags = tagGen(c)
		}
		// the request may already be cancelled once the body is written
		_ = service.Set(context.WithoutCancel(c.Request.Context()), key,
			encodeCachedResponse(contentType, writer.buf.Bytes()), tags, ttl)
	}
}
