package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agunghasbi/be-ekuator/internal/auth"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
)

func registerAuthRoutes() {
	webserver.PubPOST("/register", register)
	webserver.PubPOST("/login", login)
	webserver.ApiPOST("/logout", logout)
}

// register creates an account
// @Summary register a user
// @Tags Auth
// @Param user body auth.RegisterInput true "User"
// @Success 201 {object} map[string]interface{}
// @Router /api/register [post]
func register(c echo.Context) error {
	var in auth.RegisterInput
	if err := bindAndValidate(c, &in); err != nil {
		return failValidation(c, err)
	}
	user, err := GetAppContext(c).Auth().Register(c.Request().Context(), in)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusCreated, "User created", echo.Map{"user": user})
}

func login(c echo.Context) error {
	var in auth.LoginInput
	if err := bindAndValidate(c, &in); err != nil {
		return failValidation(c, err)
	}
	token, err := GetAppContext(c).Auth().Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "User logged in", echo.Map{"token": token})
}

func logout(c echo.Context) error {
	if err := GetAppContext(c).Auth().Logout(c.Request().Context(), webserver.GetCaller(c)); err != nil {
		return failErr(c, err)
	}
	return respond(c, http.StatusOK, "User logged out", nil)
}
