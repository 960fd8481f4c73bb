package webserver

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/app"
	"github.com/agunghasbi/be-ekuator/internal/domain"
)

// JWTMiddleware authenticates the bearer token against the access token
// store and puts the resulting domain.Caller on the context.
func JWTMiddleware(appCtx app.AppContext) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: callerKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return appCtx.Auth().Authenticate(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// header extraction errors are plain errors, only storage
			// failures arrive as internal domain errors
			var de *domain.Error
			if errors.As(err, &de) && de.Kind == domain.KindInternal {
				zap.L().Error("authenticate", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, ErrorBody(de))
			}
			return c.JSON(http.StatusUnauthorized, ErrorBody(domain.ErrUnauthenticated))
		},
	})
}

// GetCaller returns the authenticated caller. It panics outside the
// bearer-protected group.
func GetCaller(c echo.Context) domain.Caller {
	return c.Get(callerKey).(domain.Caller)
}
