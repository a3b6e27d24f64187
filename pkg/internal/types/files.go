package types

import (
	"io"
	"time"

	"github.com/yeisme/papervault/pkg/internal/model"
)

// CatalogQuery 目录下钻的查询参数.
type CatalogQuery struct {
	Branch   string `form:"branch"`
	Semester string `form:"semester"`
	Subject  string `form:"subject"`
	Type     string `form:"type"`
}

// FileView 带公开链接的文件记录.
type FileView struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	Branch       string         `json:"branch"`
	Semester     string         `json:"semester"`
	Subject      string         `json:"subject"`
	Type         model.FileType `json:"type"`
	Status       model.Status   `json:"status"`
	UploadDate   time.Time      `json:"upload_date"`
	ApprovalDate *time.Time     `json:"approval_date"`
	URL          string         `json:"url"`
}

// NewFileView 从记录构造视图.
func NewFileView(rec *model.FileRecord, url string) FileView {
	return FileView{
		ID:           rec.ID,
		Filename:     rec.Filename,
		Branch:       rec.Branch,
		Semester:     rec.Semester,
		Subject:      rec.Subject,
		Type:         rec.Type,
		Status:       rec.Status,
		UploadDate:   rec.UploadDate,
		ApprovalDate: rec.ApprovalDate,
		URL:          url,
	}
}

// UploadMeta 上传表单中的分类字段.
type UploadMeta struct {
	Branch   string `form:"branch"`
	Semester string `form:"semester"`
	Subject  string `form:"subject"`
	Type     string `form:"type"`
}

// UploadFile 单个待上传文件.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadSeekCloser, error)
}

// UploadResult 上传结果.
type UploadResult struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

// MoveRequest 移动文件到新类型.
type MoveRequest struct {
	NewType string `json:"newType"`
}

// MessageResponse 通用成功消息.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse 通用错误.
type ErrorResponse struct {
	Error string `json:"error"`
}
