package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agunghasbi/be-ekuator/internal/app"
	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/repository"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
	"github.com/agunghasbi/be-ekuator/pkg/common"
)

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB()
}

// ok writes a 200 success envelope with the payload under "data".
func ok(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, "", echo.Map{"data": data})
}

// respond writes a success envelope with the given status, optional
// message and extra top-level fields.
func respond(c echo.Context, status int, message string, fields echo.Map) error {
	body := echo.Map{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	body := echo.Map{
		"status":  "error",
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["errors"] = details
	}
	return c.JSON(status, body)
}

// failErr renders a service error with the status of its kind.
func failErr(c echo.Context, err error) error {
	de := domain.AsError(err)
	return c.JSON(webserver.StatusFor(de.Kind), webserver.ErrorBody(de))
}

func failValidation(c echo.Context, err error) error {
	if msgs := webserver.ValidationMessages(err); msgs != nil {
		return fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The given data was invalid.", msgs)
	}
	return fail(c, http.StatusUnprocessableEntity, "INVALID_REQUEST", "Unable to parse request body", err.Error())
}

// bindAndValidate decodes the request body into v and runs struct validation.
func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

// Paginator mirrors the Laravel length-aware paginator clients already consume.
type Paginator[T any] struct {
	CurrentPage int   `json:"current_page"`
	Data        []T   `json:"data"`
	From        *int  `json:"from"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	To          *int  `json:"to"`
	Total       int64 `json:"total"`
}

func newPaginator[T any](rows []T, total int64, page, pageSize int) Paginator[T] {
	if rows == nil {
		rows = []T{}
	}
	p := Paginator[T]{
		CurrentPage: page,
		Data:        rows,
		LastPage:    1,
		PerPage:     pageSize,
		Total:       total,
	}
	if pageSize > 0 && total > 0 {
		p.LastPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if len(rows) > 0 {
		from := (page-1)*pageSize + 1
		to := from + len(rows) - 1
		p.From, p.To = &from, &to
	}
	return p
}

func paged[T any](c echo.Context, rows []T, total int64, page, pageSize int) error {
	return ok(c, newPaginator(rows, total, page, pageSize))
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseListQuery reads limit, page, orderby (column) and sortby (direction).
// Non-numeric limit or page fall back to the defaults.
func parseListQuery(c echo.Context) repository.ListQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return repository.ListQuery{
		Page:    page,
		Limit:   limit,
		OrderBy: c.QueryParam("orderby"),
		SortBy:  c.QueryParam("sortby"),
	}
}

// logOperation stores an operation log entry for the current caller.
// Failures are logged and never fail the request.
func logOperation(c echo.Context, action, desc string) {
	entry := &domain.OprLog{
		ID:        common.UUIDint64(),
		UserID:    webserver.GetCaller(c).UserID,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).WithContext(c.Request().Context()).Create(entry).Error; err != nil {
		zap.L().Error("save operation log", zap.String("action", action), zap.Error(err))
	}
}
