package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/types"
)

// multipartOverhead 表单字段与分隔符的余量.
const multipartOverhead = 1 << 20

// Upload 上传一个或多个 PDF，记录为待审核.
//
//	@Summary		上传文件
//	@Description	表单字段 branch、semester、subject、type 与一个或多个 files.
//	@Tags			上传
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			branch		formData	string	true	"branch"
//	@Param			semester	formData	string	true	"semester"
//	@Param			subject		formData	string	true	"subject"
//	@Param			type		formData	string	true	"PYQ | Notes | CT"
//	@Param			files		formData	file	true	"PDF 文件"
//	@Success		200			{object}	types.UploadResult
//	@Failure		400			{object}	types.ErrorResponse	"All fields required"
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/api/upload [post]
func (h *Handlers) Upload(c *gin.Context) {
	if limit := h.bodyLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var headers []*multipart.FileHeader

	form, err := c.MultipartForm()

	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge), errors.Is(err, multipart.ErrMessageTooLarge):
		fail(c, service.BadRequest("File too large"))
		return
	case err == nil:
		headers = append(form.File["files"], form.File["files[]"]...)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, io.EOF):
		// 非 multipart 请求按缺少字段处理
	default:
		fail(c, service.BadRequest("Invalid multipart form"))
		return
	}

	meta := types.UploadMeta{
		Branch:   c.PostForm("branch"),
		Semester: c.PostForm("semester"),
		Subject:  c.PostForm("subject"),
		Type:     c.PostForm("type"),
	}

	files := make([]types.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}

	res, err := h.files.Upload(c.Request.Context(), meta, files)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func uploadFile(fh *multipart.FileHeader) types.UploadFile {
	return types.UploadFile{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

// bodyLimit 请求体上限，0 表示不限制.
func (h *Handlers) bodyLimit() int64 {
	cfg := h.cfg.Upload
	if cfg.MaxFileSize <= 0 || cfg.MaxFiles <= 0 {
		return 0
	}

	return cfg.MaxFileSize*int64(cfg.MaxFiles) + multipartOverhead
}
