package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
)

var (
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errTokenMissing    = echo.NewHTTPError(http.StatusUnauthorized, "token is missing")
	errTokenInvalid    = echo.NewHTTPError(http.StatusUnauthorized, "token is invalid")
	errForbidden       = echo.NewHTTPError(http.StatusForbidden, "permission denied, this is a protected route")
	errRoleCheckFailed = echo.NewHTTPError(http.StatusInternalServerError, "user role cannot be verified")
)

// response is the uniform envelope returned by every endpoint.
type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	OTP     string            `json:"otp,omitempty"`
	Token   string            `json:"token,omitempty"`
	User    *user.User        `json:"user,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
}

func ok(ctx echo.Context, res response) error {
	res.Success = true
	return ctx.JSON(http.StatusOK, res)
}

// appHTTPErrorHandler translates service and validation errors into the
// response envelope. Unknown errors are reported and, when the error is a
// shutdown signal, the server is brought down gracefully.
func appHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code   = http.StatusInternalServerError
			msg    = http.StatusText(http.StatusInternalServerError)
			fields map[string]string
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				msg = m
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			msg = "validation error"
			fields = make(map[string]string, len(origErr))
			for _, fieldErr := range origErr {
				fields[fieldErr.Field()] = fieldErr.Translate(core.Translator)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			msg = "validation error"
			fields = make(map[string]string, len(origErr.Fields))
			for _, fieldErr := range origErr.Fields {
				fields[fieldErr.Field] = fieldErr.Error
			}
		default:
			switch origErr {
			case user.ErrEmailExists:
				code, msg = http.StatusBadRequest, "user is already registered, please sign in to continue"
			case user.ErrNotRegistered:
				code, msg = http.StatusUnauthorized, "user is not registered, please sign up to continue"
			case user.ErrInvalidPassword:
				code, msg = http.StatusUnauthorized, "the password is incorrect"
			case user.ErrInvalidOTP:
				code, msg = http.StatusBadRequest, "the otp is not valid"
			case user.ErrNotFound:
				code, msg = http.StatusNotFound, "user not found"
			case user.ErrMailDelivery:
				code, msg = http.StatusInternalServerError, "error occurred while sending notification email"
			case course.ErrCourseNotFound:
				code, msg = http.StatusNotFound, "course not found"
			case course.ErrSectionNotFound:
				code, msg = http.StatusNotFound, "section not found"
			case course.ErrSubSectionNotFound:
				code, msg = http.StatusNotFound, "sub-section not found"
			default:
				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, response{Message: msg, Errors: fields})
		}
		if err != nil {
			logger.Error("sending error response", err)
		}
	}
}
