package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/app"
)

const (
	appCtxKey = "appCtx"
	callerKey = "caller"

	apiPrefix = "/api"
)

var server *AdminServer

// AdminServer serves the JSON API. Public routes and bearer-protected
// routes share the /api prefix.
type AdminServer struct {
	root   *echo.Echo
	pub    *echo.Group
	api    *echo.Group
	appCtx app.AppContext
}

// Init creates the process-wide server that the Api* helpers register on.
func Init(appCtx app.AppContext) *AdminServer {
	server = NewAdminServer(appCtx)
	return server
}

func NewAdminServer(appCtx app.AppContext) *AdminServer {
	s := &AdminServer{root: echo.New(), appCtx: appCtx}
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.Validator = NewValidator()
	s.root.JSONSerializer = JSONSerializer{}
	s.root.HTTPErrorHandler = HTTPErrorHandler

	s.root.Use(middleware.RequestID())
	s.root.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			zap.L().Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	s.root.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	}))
	s.root.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appCtxKey, appCtx)
			return next(c)
		}
	})

	s.pub = s.root.Group(apiPrefix)
	s.api = s.root.Group(apiPrefix, JWTMiddleware(appCtx))
	return s
}

// Root exposes the echo instance, mainly for httptest.
func (s *AdminServer) Root() *echo.Echo {
	return s.root
}

func (s *AdminServer) Start() error {
	cfg := s.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("Prepare to start the admin api server %s", addr)
	s.root.Server.ReadHeaderTimeout = 10 * time.Second
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// Listen starts the process-wide server.
func Listen() error {
	return server.Start()
}

func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PATCH(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

// PubPOST registers a route that needs no bearer token.
func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.pub.POST(path, h, m...)
}

// GetAppContext returns the application context stored by the server middleware.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appCtxKey).(app.AppContext)
}
