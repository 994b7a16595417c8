package handler

import (
	"errors"
	"net/http"

	"chat_core_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": errorx.CodeSuccess,
		"msg":  "success",
		"data": data,
	})
}

// HandleError 通用错误处理方法
// 业务错误按错误码映射 HTTP 状态；只有存储故障与未知错误返回 500
func HandleError(c *gin.Context, err error) {
	code, msg := describeError(err)
	if code == errorx.CodeServerBusy || code == errorx.CodeDBError {
		zap.L().Error("system error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
	}
	c.JSON(httpStatus(code), gin.H{
		"code": code,
		"msg":  msg,
		"data": nil,
	})
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": errorx.ErrInvalidParam.Code,
			"msg":  RemoveTopStruct(validationErrs.Translate(Trans)),
			"data": nil,
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Debug("param bind error", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"code": errorx.ErrBadRequest.Code,
		"msg":  errorx.ErrBadRequest.Msg,
		"data": nil,
	})
}

// describeError 提取对外暴露的错误码与消息，内部故障细节不返回给客户端
func describeError(err error) (int, string) {
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) {
		return errorx.ErrServerBusy.Code, errorx.ErrServerBusy.Msg
	}
	switch codeErr.Code {
	case errorx.CodeDBError, errorx.CodeCacheError, errorx.CodeServerBusy:
		return codeErr.Code, errorx.ErrServerBusy.Msg
	}
	return codeErr.Code, codeErr.Msg
}

// httpStatus 业务错误码 -> HTTP 状态码
func httpStatus(code int) int {
	switch code {
	case errorx.CodeSuccess:
		return http.StatusOK
	case errorx.CodeUnauthorized:
		return http.StatusUnauthorized
	case errorx.CodeInvalidParam, errorx.CodeBadRequest:
		return http.StatusBadRequest
	case errorx.CodeNotFound:
		return http.StatusNotFound
	case errorx.CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
