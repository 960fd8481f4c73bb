// Package adminapi implements the JSON API handlers.
package adminapi

// Init registers every route on the webserver created by webserver.Init.
func Init() {
	registerAuthRoutes()
	registerProductRoutes()
	registerTransactionRoutes()
	registerMetricsRoutes()
}
