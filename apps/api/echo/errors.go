package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/task"
	"github.com/prajin1910/eval/core/user"
)

var errHTTPNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

// appHTTPErrorHandler maps the service error taxonomy to HTTP statuses:
// NotFound sentinels to 404, validation errors to 400, everything else 500.
func appHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message interface{}

	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if cause.Internal != nil {
			if herr, ok := cause.Internal.(*echo.HTTPError); ok {
				cause = herr
			}
		}
		code = cause.Code
		message = cause.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string)
		for _, vErr := range cause {
			if translator != nil {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			} else {
				fldErrs[vErr.Field()] = vErr.Error()
			}
		}
		code = http.StatusBadRequest
		message = fldErrs
	case *core.ValidationError:
		if cause.Fields != nil {
			fldErrs := make(map[string]string)
			for _, fErr := range cause.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = cause.Error()
		}
		code = http.StatusBadRequest
	default:
		switch errors.Cause(err) {
		case user.ErrNotFound, task.ErrNotFound, chat.ErrNotFound:
			code = http.StatusNotFound
			message = errors.Cause(err).Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
		}
	}

	if c.Echo().Debug {
		message = err.Error()
	} else if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, message)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
