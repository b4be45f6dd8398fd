package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	StatusCode int    `json:"-"`
	Msg        string `json:"error"`
}

func (e *Err) Error() string {
	return e.Msg
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Msg:        err.Error(),
	}
}

func ErrWrongCredentials(err error) *Err {
	zap.L().Info("wrong credentials", zap.Error(err))

	return &Err{
		StatusCode: http.StatusUnauthorized,
		Msg:        "wrong credentials",
	}
}

func ErrPermissionDenied(err error) *Err {
	zap.L().Info("permission denied", zap.Error(err))

	return &Err{
		StatusCode: http.StatusForbidden,
		Msg:        "permission denied",
	}
}

func ErrNotFound(object, key string, value interface{}) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Msg:        fmt.Sprintf("%v not found by %v (%v)", object, key, value),
	}
}

// ErrConflict covers business rejections of otherwise valid requests, like a
// sold out event or an already consumed gift token.
func ErrConflict(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		Msg:        err.Error(),
	}
}

func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return &Err{
		StatusCode: http.StatusInternalServerError,
		Msg:        "internal server error",
	}
}
