package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
)

type transactionPayload struct {
	ProductID *int64 `json:"id" validate:"required"`
	Quantity  *int64 `json:"quantity" validate:"required"`
}

func registerTransactionRoutes() {
	webserver.ApiGET("/transactions", listTransactions)
	webserver.ApiGET("/transactions/:id", getTransaction)
	webserver.ApiPOST("/transactions", createTransaction)
}

// listTransactions retrieves the ledger, limited to the caller's own
// purchases for customers
// @Summary get the transaction list
// @Tags Transactions
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param orderby query string false "Sort field"
// @Param sortby query string false "Sort direction"
// @Success 200 {object} map[string]interface{}
// @Router /api/transactions [get]
func listTransactions(c echo.Context) error {
	rows, total, q, err := GetAppContext(c).Purchases().List(c.Request().Context(), webserver.GetCaller(c), parseListQuery(c))
	if err != nil {
		return failErr(c, err)
	}
	return paged(c, rows, total, q.Page, q.Limit)
}

func getTransaction(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, domain.ErrTransactionNotFound)
	}
	tx, err := GetAppContext(c).Purchases().Get(c.Request().Context(), webserver.GetCaller(c), id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "", echo.Map{"transaction": tx})
}

// createTransaction purchases a product
// @Summary buy a product
// @Tags Transactions
// @Param transaction body transactionPayload true "Product id and quantity"
// @Success 201 {object} map[string]interface{}
// @Router /api/transactions [post]
func createTransaction(c echo.Context) error {
	caller := webserver.GetCaller(c)
	if !caller.Role.CanPurchase() {
		return failErr(c, domain.ErrUnauthorized)
	}
	var payload transactionPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return failValidation(c, err)
	}
	tx, err := GetAppContext(c).Purchases().Create(c.Request().Context(), caller, *payload.ProductID, *payload.Quantity)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusCreated, "Transaction created", echo.Map{"transaction": tx})
}
