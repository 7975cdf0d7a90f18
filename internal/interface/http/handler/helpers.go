package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// parseID 解析路径参数中的ID,非法时直接写入422响应并返回false
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.Newf(apperrors.ErrCodeInvalidParams, "无效的%s: %s", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
}
