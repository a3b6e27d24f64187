// Package model 定义持久化模型.
package model

import (
	crand "crypto/rand"
	"path"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"
)

// FileType 资料类型，同时作为对象路径的一级目录.
type FileType string

const (
	TypePYQ   FileType = "PYQ"   // 往年试题
	TypeCT    FileType = "CT"    // 课堂测验
	TypeNotes FileType = "Notes" // 笔记
)

// FileTypes 返回全部合法类型.
func FileTypes() []FileType {
	return []FileType{TypePYQ, TypeCT, TypeNotes}
}

// ParseFileType 严格匹配（区分大小写）.
func ParseFileType(s string) (FileType, bool) {
	for _, t := range FileTypes() {
		if string(t) == s {
			return t, true
		}
	}

	return "", false
}

// Status 审核状态.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusDeleted 仅用于状态迁移判断，记录被删除后不再存在.
	StatusDeleted Status = "deleted"
)

// Valid 是否为可持久化的状态.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition 审核状态机.
//
//	pending  -> approved | rejected
//	approved -> approved（重复审批或移动）| deleted
//	rejected -> rejected
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusApproved || to == StatusDeleted
	case StatusRejected:
		return to == StatusRejected
	default:
		return false
	}
}

// FileRecord 每个上传文档一行.
type FileRecord struct {
	ID           string     `gorm:"primaryKey;size:26"                     json:"id"`
	Filename     string     `gorm:"size:512;not null"                      json:"filename"`
	Branch       string     `gorm:"size:128;not null;index:idx_files_path" json:"branch"`
	Semester     string     `gorm:"size:64;not null;index:idx_files_path"  json:"semester"`
	Subject      string     `gorm:"size:255;not null;index:idx_files_path" json:"subject"`
	Type         FileType   `gorm:"size:16;not null;index:idx_files_path"  json:"type"`
	Status       Status     `gorm:"size:16;not null;index"                 json:"status"`
	UploadDate   time.Time  `gorm:"not null;index"                         json:"upload_date"`
	ApprovalDate *time.Time `json:"approval_date"`
}

// TableName 固定表名.
func (FileRecord) TableName() string {
	return "files"
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(crand.Reader, 0)
)

// NewID 生成按时间有序的 ULID.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// BeforeCreate 补全主键、状态与上传时间.
func (f *FileRecord) BeforeCreate(*gorm.DB) error {
	if f.UploadDate.IsZero() {
		f.UploadDate = time.Now().UTC()
	}

	if f.ID == "" {
		f.ID = NewID(f.UploadDate)
	}

	if f.Status == "" {
		f.Status = StatusPending
	}

	return nil
}

// ObjectKey 对象存储路径 branch/semester/subject/type/filename.
func (f *FileRecord) ObjectKey() string {
	return f.ObjectKeyFor(f.Type)
}

// ObjectKeyFor 记录在另一类型下对应的对象路径.
func (f *FileRecord) ObjectKeyFor(t FileType) string {
	return ObjectKey(f.Branch, f.Semester, f.Subject, t, f.Filename)
}

// ObjectKey 拼接对象路径.
func ObjectKey(branch, semester, subject string, t FileType, filename string) string {
	return path.Join(branch, semester, subject, string(t), filename)
}

// All 需要迁移的模型.
func All() []any {
	return []any{&FileRecord{}}
}
