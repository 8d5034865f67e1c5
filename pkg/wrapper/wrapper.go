package wrapper

import (
	"errors"

	"github.com/Alwanly/service-edge-controller/pkg/apperror"
)

type JSONResult struct {
	Code    int         `json:"-"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ResponseSuccess(httpCode int, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: true,
		Message: "Success",
		Data:    data,
	}
}

func ResponseFailed(httpCode int, message string, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: false,
		Message: message,
		Data:    data,
	}
}

// ResponseError builds a failed result whose status follows the apperror taxonomy.
// Unclassified errors are reported with a generic message so internals do not leak.
func ResponseError(err error) JSONResult {
	code := apperror.HTTPStatus(err)
	msg := err.Error()
	if !classified(err) {
		msg = "internal server error"
	}
	res := ResponseFailed(code, msg, nil)
	if apperror.Retryable(err) {
		res.Data = map[string]bool{"retryable": true}
	}
	return res
}

func classified(err error) bool {
	for _, target := range []error{
		apperror.ErrValidation,
		apperror.ErrAuthentication,
		apperror.ErrNotFound,
		apperror.ErrConflict,
		apperror.ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
