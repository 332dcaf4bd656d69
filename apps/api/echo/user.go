package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/user"
)

type userApi struct {
	service user.Service
	conf    *core.Config
}

func registerUserAPI(g *echo.Group, sessionMW echo.MiddlewareFunc, svc user.Service, conf *core.Config) {
	api := userApi{service: svc, conf: conf}

	ag := g.Group("/auth")
	ag.POST("/sendotp", api.sendOTP)
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/changepassword", api.changePassword, sessionMW)
}

func (api *userApi) sendOTP(ctx echo.Context) error {
	var req user.OTPRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding OTPRequest")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	otp, err := api.service.RequestOTP(ctx.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "OTP sent successfully", OTP: otp.Code})
}

func (api *userApi) signup(ctx echo.Context) error {
	var nu user.NewUser
	if err := ctx.Bind(&nu); err != nil {
		return errors.Wrap(err, "binding NewUser")
	}
	if err := nu.Validate(); err != nil {
		return err
	}

	usr, err := api.service.Register(ctx.Request().Context(), nu)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "user registered successfully", User: &usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding Credentials")
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	usr, err := api.service.Authenticate(ctx.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return err
	}

	token, err := GenerateToken(GetUserClaims(usr, api.conf), api.conf)
	if err != nil {
		return err
	}
	usr.Token = token
	setTokenCookie(ctx, token, api.conf)
	return ok(ctx, response{Message: "logged in successfully", Token: token, User: &usr})
}

func (api *userApi) changePassword(ctx echo.Context) error {
	var pc user.PasswordChange
	if err := ctx.Bind(&pc); err != nil {
		return errors.Wrap(err, "binding PasswordChange")
	}
	if err := pc.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if _, err = api.service.ChangePassword(ctx.Request().Context(), claims.Subject, pc); err != nil {
		return err
	}
	return ok(ctx, response{Message: "password updated successfully"})
}
