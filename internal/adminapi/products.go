package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agunghasbi/be-ekuator/internal/catalog"
	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
)

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiPATCH("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

// listProducts retrieves the product list
// @Summary get the product list
// @Tags Products
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param orderby query string false "Sort field"
// @Param sortby query string false "Sort direction"
// @Success 200 {object} map[string]interface{}
// @Router /api/products [get]
func listProducts(c echo.Context) error {
	rows, total, q, err := GetAppContext(c).Catalog().List(c.Request().Context(), parseListQuery(c))
	if err != nil {
		return failErr(c, err)
	}
	return paged(c, rows, total, q.Page, q.Limit)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, domain.ErrProductNotFound)
	}
	p, err := GetAppContext(c).Catalog().Get(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "", echo.Map{"product": p})
}

func createProduct(c echo.Context) error {
	caller := webserver.GetCaller(c)
	if !caller.Role.CanManageCatalog() {
		return failErr(c, domain.ErrUnauthorized)
	}
	var payload catalog.ProductInput
	if err := bindAndValidate(c, &payload); err != nil {
		return failValidation(c, err)
	}
	p, err := GetAppContext(c).Catalog().Create(c.Request().Context(), caller, payload)
	if err != nil {
		return failErr(c, err)
	}
	logOperation(c, "add_product", fmt.Sprintf("create product %d %s", p.ID, p.Name))
	return respond(c, http.StatusCreated, "Product created", echo.Map{"product": p})
}

func updateProduct(c echo.Context) error {
	caller := webserver.GetCaller(c)
	if !caller.Role.CanManageCatalog() {
		return failErr(c, domain.ErrUnauthorized)
	}
	var payload catalog.ProductPatch
	if err := bindAndValidate(c, &payload); err != nil {
		return failValidation(c, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, domain.ErrProductNotFound)
	}
	p, err := GetAppContext(c).Catalog().Update(c.Request().Context(), caller, id, payload)
	if err != nil {
		return failErr(c, err)
	}
	logOperation(c, "update_product", fmt.Sprintf("update product %d", p.ID))
	return respond(c, http.StatusCreated, "Product updated", echo.Map{"product": p})
}

func deleteProduct(c echo.Context) error {
	caller := webserver.GetCaller(c)
	if !caller.Role.CanManageCatalog() {
		return failErr(c, domain.ErrUnauthorized)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return failErr(c, domain.ErrProductNotFound)
	}
	if err := GetAppContext(c).Catalog().Delete(c.Request().Context(), caller, id); err != nil {
		return failErr(c, err)
	}
	logOperation(c, "delete_product", fmt.Sprintf("delete product %d", id))
	return respond(c, http.StatusCreated, "Product deleted", nil)
}
