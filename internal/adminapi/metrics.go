package adminapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
)

func registerMetricsRoutes() {
	webserver.ApiGET("/metrics/checkout", getCheckoutMetrics)
	webserver.ApiGET("/metrics/system", getSystemMetrics)
}

// getCheckoutMetrics summarizes purchase outcomes over the last hours (default 24)
func getCheckoutMetrics(c echo.Context) error {
	if !webserver.GetCaller(c).Role.CanManageCatalog() {
		return failErr(c, domain.ErrUnauthorized)
	}
	hours, _ := strconv.Atoi(c.QueryParam("hours"))
	if hours <= 0 || hours > 24*7 {
		hours = 24
	}
	sum, err := GetAppContext(c).Metrics().Summary(hours)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, sum)
}

// getSystemMetrics reports the latest memory and cpu gauges sampled by the
// monitor jobs. A gauge with no sample in the last minute is null.
func getSystemMetrics(c echo.Context) error {
	if !webserver.GetCaller(c).Role.CanManageCatalog() {
		return failErr(c, domain.ErrUnauthorized)
	}
	gauges, err := GetAppContext(c).Metrics().Gauges(time.Minute)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, gauges)
}
