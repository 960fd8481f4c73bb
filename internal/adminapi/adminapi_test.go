package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/agunghasbi/be-ekuator/config"
	"github.com/agunghasbi/be-ekuator/internal/app"
	"github.com/agunghasbi/be-ekuator/internal/auth"
	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/internal/repository/repotest"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

type response struct {
	Code int
	Body map[string]interface{}
}

func (r response) object(key string) map[string]interface{} {
	m, _ := r.Body[key].(map[string]interface{})
	return m
}

type APITestSuite struct {
	suite.Suite
	app           *app.Application
	e             *echo.Echo
	adminToken    string
	customerToken string
}

func (s *APITestSuite) SetupTest() {
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = s.T().TempDir()
	s.app = app.NewApplication(cfg)
	s.app.OverrideDB(repotest.NewDB(s.T()))
	s.Require().NoError(s.app.Bootstrap())

	s.e = webserver.Init(s.app).Root()
	Init()

	s.adminToken = s.signup("admin@example.com", domain.RoleAdmin)
	s.customerToken = s.signup("customer@example.com", domain.RoleCustomer)
}

func (s *APITestSuite) signup(email string, role domain.Role) string {
	ctx := context.Background()
	_, err := s.app.Auth().Register(ctx, auth.RegisterInput{Name: "Test", Email: email, Password: "rahasia123", Role: role})
	s.Require().NoError(err)
	token, err := s.app.Auth().Login(ctx, email, "rahasia123")
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) call(method, path, token string, payload interface{}) response {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	res := response{Code: rec.Code}
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func (s *APITestSuite) createProduct(name string, price, quantity int64) int64 {
	res := s.call(http.MethodPost, "/api/products", s.adminToken, echo.Map{"name": name, "price": price, "quantity": quantity})
	s.Require().Equal(http.StatusCreated, res.Code, res.Body)
	return int64(res.object("product")["id"].(float64))
}

func (s *APITestSuite) TestRegisterAndLogin() {
	res := s.call(http.MethodPost, "/api/register", "", echo.Map{"name": "Andi", "email": "andi@example.com", "password": "rahasia123", "role": 2})
	s.Equal(http.StatusCreated, res.Code)
	s.Equal("User created", res.Body["message"])
	s.Equal("andi@example.com", res.object("user")["email"])
	s.NotContains(res.object("user"), "password")

	res = s.call(http.MethodPost, "/api/register", "", echo.Map{"name": "Andi", "email": "andi@example.com", "password": "rahasia123", "role": 2})
	s.Equal(http.StatusUnprocessableEntity, res.Code)

	res = s.call(http.MethodPost, "/api/register", "", echo.Map{"name": "Andi", "email": "not-an-email", "password": "short", "role": 3})
	s.Equal(http.StatusUnprocessableEntity, res.Code)
	errs := res.object("errors")
	s.Contains(errs, "email")
	s.Contains(errs, "password")
	s.Contains(errs, "role")

	res = s.call(http.MethodPost, "/api/login", "", echo.Map{"email": "andi@example.com", "password": "wrong"})
	s.Equal(http.StatusUnprocessableEntity, res.Code)
	s.Equal("Provided email address or password is incorrect", res.Body["message"])

	res = s.call(http.MethodPost, "/api/login", "", echo.Map{"email": "andi@example.com", "password": "rahasia123"})
	s.Equal(http.StatusOK, res.Code)
	s.Equal("User logged in", res.Body["message"])
	s.NotEmpty(res.Body["token"])
}

func (s *APITestSuite) TestLogoutRevokesToken() {
	res := s.call(http.MethodPost, "/api/logout", s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)
	s.Equal("User logged out", res.Body["message"])

	res = s.call(http.MethodGet, "/api/products", s.customerToken, nil)
	s.Equal(http.StatusUnauthorized, res.Code)
	s.Equal("Unauthenticated.", res.Body["message"])
}

func (s *APITestSuite) TestRoutesRequireToken() {
	for _, path := range []string{"/api/products", "/api/transactions", "/api/products/1", "/api/metrics/checkout"} {
		res := s.call(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, res.Code, path)
	}
}

func (s *APITestSuite) TestProductLifecycle() {
	res := s.call(http.MethodPost, "/api/products", s.customerToken, echo.Map{"name": "Kopi", "price": 1000, "quantity": 1})
	s.Equal(http.StatusUnauthorized, res.Code)
	s.Equal("Unauthorized.", res.Body["message"])

	res = s.call(http.MethodPost, "/api/products", s.adminToken, echo.Map{"name": "Kopi"})
	s.Equal(http.StatusUnprocessableEntity, res.Code)
	s.Contains(res.object("errors"), "price")

	res = s.call(http.MethodPost, "/api/products", s.adminToken, echo.Map{"name": "Kopi", "price": int64(math.MaxInt32) + 1, "quantity": 1})
	s.Equal(http.StatusUnprocessableEntity, res.Code)
	s.Contains(res.object("errors"), "price")

	id := s.createProduct("Kopi", 1000, 5)

	res = s.call(http.MethodGet, fmt.Sprintf("/api/products/%d", id), s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)
	s.Equal("Kopi", res.object("product")["name"])

	res = s.call(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, echo.Map{"price": 1200})
	s.Equal(http.StatusCreated, res.Code)
	s.Equal("Product updated", res.Body["message"])
	s.Equal(float64(1200), res.object("product")["price"])
	s.Equal(float64(5), res.object("product")["quantity"])

	res = s.call(http.MethodPut, fmt.Sprintf("/api/products/%d", id), s.customerToken, echo.Map{"price": 1})
	s.Equal(http.StatusUnauthorized, res.Code)

	res = s.call(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), s.customerToken, nil)
	s.Equal(http.StatusUnauthorized, res.Code)

	res = s.call(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), s.adminToken, nil)
	s.Equal(http.StatusCreated, res.Code)
	s.Equal("Product deleted", res.Body["message"])

	for _, path := range []string{fmt.Sprintf("/api/products/%d", id), "/api/products/abc"} {
		res = s.call(http.MethodGet, path, s.adminToken, nil)
		s.Equal(http.StatusNotFound, res.Code)
		s.Equal("Product not found!", res.Body["message"])
	}

	res = s.call(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), s.adminToken, nil)
	s.Equal(http.StatusNotFound, res.Code)

	var logs []domain.OprLog
	s.Require().NoError(s.app.DB().Order("id").Find(&logs).Error)
	s.Require().Len(logs, 3)
	s.Equal("add_product", logs[0].OptAction)
	s.Equal("update_product", logs[1].OptAction)
	s.Equal("delete_product", logs[2].OptAction)
}

func (s *APITestSuite) TestProductListPaginator() {
	for i := 1; i <= 3; i++ {
		s.createProduct(fmt.Sprintf("P%d", i), int64(i*100), 1)
	}

	res := s.call(http.MethodGet, "/api/products?limit=2&page=2&orderby=price&sortby=asc", s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)
	data := res.object("data")
	s.Equal(float64(2), data["current_page"])
	s.Equal(float64(2), data["last_page"])
	s.Equal(float64(2), data["per_page"])
	s.Equal(float64(3), data["from"])
	s.Equal(float64(3), data["to"])
	s.Equal(float64(3), data["total"])
	rows := data["data"].([]interface{})
	s.Require().Len(rows, 1)
	s.Equal(float64(300), rows[0].(map[string]interface{})["price"])

	res = s.call(http.MethodGet, "/api/products?page=9", s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)
	data = res.object("data")
	s.Nil(data["from"])
	s.Empty(data["data"])

	res = s.call(http.MethodGet, "/api/products?orderby=password", s.customerToken, nil)
	s.Equal(http.StatusUnprocessableEntity, res.Code)
}

func (s *APITestSuite) TestPurchaseFlow() {
	id := s.createProduct("Kopi", 1000, 5)
	empty := s.createProduct("Habis", 1000, 0)

	res := s.call(http.MethodPost, "/api/transactions", s.adminToken, echo.Map{"id": id, "quantity": 1})
	s.Equal(http.StatusUnauthorized, res.Code)
	s.Equal("Unauthorized.", res.Body["message"])

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 2})
	s.Require().Equal(http.StatusCreated, res.Code, res.Body)
	s.Equal("Transaction created", res.Body["message"])
	tx := res.object("transaction")
	s.Equal(float64(2310), tx["total"])
	s.Equal(float64(200), tx["tax"])
	s.Equal(float64(110), tx["admin_fee"])
	s.Equal(float64(1000), tx["price"])
	s.IsType("", tx["id"])

	res = s.call(http.MethodGet, fmt.Sprintf("/api/products/%d", id), s.customerToken, nil)
	s.Equal(float64(3), res.object("product")["quantity"])

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 4})
	s.Equal(http.StatusBadRequest, res.Code)
	s.Equal("Purchase quantity exceeds stock!", res.Body["message"])

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": empty, "quantity": 1})
	s.Equal(http.StatusBadRequest, res.Code)
	s.Equal("Product out of stock!", res.Body["message"])

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": empty, "quantity": 0})
	s.Equal(http.StatusUnprocessableEntity, res.Code)

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id})
	s.Equal(http.StatusUnprocessableEntity, res.Code)
	s.Contains(res.object("errors"), "quantity")

	res = s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": 424242, "quantity": 1})
	s.Equal(http.StatusNotFound, res.Code)
	s.Equal("Product not found!", res.Body["message"])
}

func (s *APITestSuite) TestPurchaseRollsBackOnLedgerFailure() {
	id := s.createProduct("Kopi", 1000, 5)
	s.Require().NoError(s.app.DB().Migrator().DropTable(&domain.Transaction{}))

	res := s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 2})
	s.Equal(http.StatusInternalServerError, res.Code)
	s.Equal("error", res.Body["status"])
	s.NotEmpty(res.Body["message"])
	s.NotEmpty(res.Body["errors"])

	res = s.call(http.MethodGet, fmt.Sprintf("/api/products/%d", id), s.customerToken, nil)
	s.Equal(float64(5), res.object("product")["quantity"])
}

func (s *APITestSuite) TestTransactionsAreScoped() {
	id := s.createProduct("Teh", 500, 10)
	otherToken := s.signup("other@example.com", domain.RoleCustomer)

	res := s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 1})
	s.Require().Equal(http.StatusCreated, res.Code)
	mine := res.object("transaction")["id"].(string)

	res = s.call(http.MethodPost, "/api/transactions", otherToken, echo.Map{"id": id, "quantity": 1})
	s.Require().Equal(http.StatusCreated, res.Code)
	theirs := res.object("transaction")["id"].(string)

	res = s.call(http.MethodGet, "/api/transactions", s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)
	s.Equal(float64(1), res.object("data")["total"])

	res = s.call(http.MethodGet, "/api/transactions/"+theirs, s.customerToken, nil)
	s.Equal(http.StatusNotFound, res.Code)
	s.Equal("Transaction not found!", res.Body["message"])

	res = s.call(http.MethodGet, "/api/transactions/"+mine, s.customerToken, nil)
	s.Equal(http.StatusOK, res.Code)

	res = s.call(http.MethodGet, "/api/transactions?sortby=asc", s.adminToken, nil)
	s.Equal(http.StatusOK, res.Code)
	s.Equal(float64(2), res.object("data")["total"])

	res = s.call(http.MethodGet, "/api/transactions/"+theirs, s.adminToken, nil)
	s.Equal(http.StatusOK, res.Code)
}

func (s *APITestSuite) TestCheckoutMetrics() {
	id := s.createProduct("Roti", 1000, 1)
	s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 1})
	s.call(http.MethodPost, "/api/transactions", s.customerToken, echo.Map{"id": id, "quantity": 1})

	res := s.call(http.MethodGet, "/api/metrics/checkout", s.customerToken, nil)
	s.Equal(http.StatusUnauthorized, res.Code)

	res = s.call(http.MethodGet, "/api/metrics/checkout?hours=1", s.adminToken, nil)
	s.Equal(http.StatusOK, res.Code)
	data := res.object("data")
	s.Equal(float64(1), data["hours"])
	s.Equal(float64(1), data["successes"])
	s.Equal(float64(1), data["conflicts"])
	s.Equal(float64(1155), data["revenue"])
}

func (s *APITestSuite) TestSystemMetrics() {
	res := s.call(http.MethodGet, "/api/metrics/system", s.customerToken, nil)
	s.Equal(http.StatusUnauthorized, res.Code)

	s.Require().NoError(s.app.Metrics().SetGauge(metrics.GaugeProcessMem, 42))
	res = s.call(http.MethodGet, "/api/metrics/system", s.adminToken, nil)
	s.Equal(http.StatusOK, res.Code)
	data := res.object("data")
	s.Equal(float64(42), data[metrics.GaugeProcessMem])
	s.Contains(data, metrics.GaugeSystemMem)
	s.Nil(data[metrics.GaugeSystemMem])
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
