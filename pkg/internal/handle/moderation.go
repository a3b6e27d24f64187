package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/types"
)

// Approve 通过待审核文件.
//
//	@Summary		通过文件
//	@Tags			审核
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"文件 ID"
//	@Success		200	{object}	types.MessageResponse	"File approved"
//	@Failure		400	{object}	types.ErrorResponse
//	@Failure		401	{object}	types.ErrorResponse
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/approve/{id} [post]
func (h *Handlers) Approve(c *gin.Context) {
	msg, err := h.files.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: msg})
}

// Reject 拒绝待审核文件或删除已通过文件.
//
//	@Summary		拒绝或删除文件
//	@Tags			审核
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"文件 ID"
//	@Success		200	{object}	types.MessageResponse	"File rejected | File deleted"
//	@Failure		401	{object}	types.ErrorResponse
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/reject/{id} [post]
func (h *Handlers) Reject(c *gin.Context) {
	msg, err := h.files.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: msg})
}

// Move 把已通过文件移动到新类型.
//
//	@Summary		移动文件
//	@Tags			审核
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string				true	"文件 ID"
//	@Param			req	body		types.MoveRequest	true	"新类型"
//	@Success		200	{object}	types.MessageResponse	"File moved successfully"
//	@Failure		400	{object}	types.ErrorResponse		"Invalid new type | Only approved files can be moved"
//	@Failure		401	{object}	types.ErrorResponse
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/move/{id} [post]
func (h *Handlers) Move(c *gin.Context) {
	var req types.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, service.BadRequest("Invalid request body"))
		return
	}

	msg, err := h.files.Move(c.Request.Context(), c.Param("id"), req.NewType)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: msg})
}
