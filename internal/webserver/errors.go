package webserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/domain"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody renders the error envelope. Internal errors carry their cause
// under "errors".
func ErrorBody(de *domain.Error) echo.Map {
	body := echo.Map{
		"status":  "error",
		"code":    de.Code,
		"message": de.Message,
	}
	if de.Kind == domain.KindInternal && de.Err != nil {
		body["errors"] = de.Err.Error()
	}
	return body
}

// HTTPErrorHandler renders framework and unhandled errors in the API envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   echo.Map
		he     *echo.HTTPError
		de     *domain.Error
	)
	switch {
	case errors.As(err, &de):
		status, body = StatusFor(de.Kind), ErrorBody(de)
	case errors.As(err, &he):
		status = he.Code
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		body = echo.Map{"status": "error", "code": httpCode(he.Code), "message": msg}
	default:
		de = domain.Internal(err)
		status, body = http.StatusInternalServerError, ErrorBody(de)
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		zap.L().Error("write error response", zap.Error(err))
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	default:
		return "HTTP_ERROR"
	}
}
