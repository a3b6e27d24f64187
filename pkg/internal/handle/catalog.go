package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/types"
)

// Branches 列出已通过文件的 branch.
//
//	@Summary		列出 branch
//	@Tags			目录
//	@Produce		json
//	@Success		200	{array}		string
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/branches [get]
func (h *Handlers) Branches(c *gin.Context) {
	out, err := h.files.Branches(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Semesters 列出 branch 下的 semester.
//
//	@Summary		列出 semester
//	@Tags			目录
//	@Produce		json
//	@Param			branch	query		string	true	"branch"
//	@Success		200		{array}		string
//	@Failure		400		{object}	types.ErrorResponse	"Branch parameter required"
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/api/semesters [get]
func (h *Handlers) Semesters(c *gin.Context) {
	out, err := h.files.Semesters(c.Request.Context(), c.Query("branch"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Subjects 列出 branch、semester 下的 subject.
//
//	@Summary		列出 subject
//	@Tags			目录
//	@Produce		json
//	@Param			branch		query		string	true	"branch"
//	@Param			semester	query		string	true	"semester"
//	@Success		200			{array}		string
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/subjects [get]
func (h *Handlers) Subjects(c *gin.Context) {
	out, err := h.files.Subjects(c.Request.Context(), c.Query("branch"), c.Query("semester"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Types 列出路径下存在的资料类型.
//
//	@Summary		列出资料类型
//	@Tags			目录
//	@Produce		json
//	@Param			branch		query		string	true	"branch"
//	@Param			semester	query		string	true	"semester"
//	@Param			subject		query		string	true	"subject"
//	@Success		200			{array}		string
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/types [get]
func (h *Handlers) Types(c *gin.Context) {
	out, err := h.files.Types(c.Request.Context(), c.Query("branch"), c.Query("semester"), c.Query("subject"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Files 列出已通过的文件，参数均可选.
//
//	@Summary		列出已通过文件
//	@Tags			目录
//	@Produce		json
//	@Param			branch		query		string	false	"branch"
//	@Param			semester	query		string	false	"semester"
//	@Param			subject		query		string	false	"subject"
//	@Param			type		query		string	false	"PYQ | Notes | CT"
//	@Success		200			{array}		types.FileView
//	@Failure		400			{object}	types.ErrorResponse	"Invalid type"
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/files [get]
func (h *Handlers) Files(c *gin.Context) {
	var q types.CatalogQuery
	_ = c.ShouldBindQuery(&q)

	out, err := h.files.Files(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Pending 列出待审核文件，按上传时间倒序.
//
//	@Summary		待审核列表
//	@Tags			审核
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		types.FileView
//	@Failure		401	{object}	types.ErrorResponse
//	@Failure		500	{object}	types.ErrorResponse
//	@Router			/api/pending [get]
func (h *Handlers) Pending(c *gin.Context) {
	out, err := h.files.Pending(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
