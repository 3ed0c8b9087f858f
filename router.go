package postboard

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Controller registers its routes on the group it is mounted under.
type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group  *gin.RouterGroup
	server *Server
}

var (
	contextType = reflect.TypeOf(&Context{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	group := s.engine.Group(s.basePath+path, middleware...)
	return &ControllerGroup{group: group, server: s}
}

func (s *Server) RegisterController(path string, controller Controller, middleware ...gin.HandlerFunc) {
	controller.Register(s.Group(path, middleware...))
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{group: g.group.Group(path, middleware...), server: g.server}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) GET(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, path, handler, middleware)
}

func (g *ControllerGroup) POST(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, path, handler, middleware)
}

func (g *ControllerGroup) PUT(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, path, handler, middleware)
}

func (g *ControllerGroup) DELETE(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, path, handler, middleware)
}

func (g *ControllerGroup) handle(method, path string, handler interface{}, middleware []gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middleware...)
	handlers = append(handlers, g.server.wrapHandler(handler))
	g.group.Handle(method, path, handlers...)
}

// wrapHandler adapts a typed handler to gin. Supported shapes:
//
//	func() (T, error)
//	func(*Context) (T, error)
//	func(Req) (T, error)
//	func(*Context, Req) (T, error)
//
// Req is bound from the request body. A string result is written as text, anything
// else as JSON, with the status the handler set on the context (200 by default).
func (s *Server) wrapHandler(handler interface{}) gin.HandlerFunc {
	if h, ok := handler.(gin.HandlerFunc); ok {
		return h
	}
	if h, ok := handler.(func(*gin.Context)); ok {
		return h
	}

	fn := reflect.ValueOf(handler)
	typ := fn.Type()
	if typ.Kind() != reflect.Func {
		panic(fmt.Sprintf("handler must be a function, got %s", typ))
	}
	if typ.NumOut() != 2 || !typ.Out(1).Implements(errorType) {
		panic(fmt.Sprintf("handler must return (T, error), got %s", typ))
	}
	if typ.NumIn() > 2 {
		panic(fmt.Sprintf("handler takes at most (*Context, request), got %s", typ))
	}

	return func(c *gin.Context) {
		ctx := NewContext(c, s.logger)
		args := make([]reflect.Value, typ.NumIn())
		for i := 0; i < typ.NumIn(); i++ {
			in := typ.In(i)
			if in == contextType {
				args[i] = reflect.ValueOf(ctx)
				continue
			}
			req := reflect.New(in)
			if err := ctx.GetRequest(req.Interface()); err != nil {
				ctx.SendError(err)
				c.Abort()
				return
			}
			args[i] = req.Elem()
		}

		out := fn.Call(args)
		if errVal := out[1]; !errVal.IsNil() {
			ctx.SendError(errVal.Interface().(error))
			return
		}

		status := c.Writer.Status()
		if result, ok := out[0].Interface().(string); ok {
			c.String(status, result)
			return
		}
		c.JSON(status, out[0].Interface())
	}
}
