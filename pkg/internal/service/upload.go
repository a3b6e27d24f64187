package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/types"
	"github.com/yeisme/papervault/pkg/metrics"
	"github.com/yeisme/papervault/pkg/queue"
	"github.com/yeisme/papervault/pkg/rule"
	"github.com/yeisme/papervault/pkg/tracing"
)

const pdfMIME = "application/pdf"

// Upload 存储文件并登记为 pending.
//
// 先校验全部文件再逐个写入；某个文件写入失败时中止请求，之前已写入的文件保留.
func (s *FileService) Upload(ctx context.Context, meta types.UploadMeta, files []types.UploadFile) (*types.UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Upload")
	defer span.End()

	l := logger(ctx, "upload")

	meta.Branch = strings.TrimSpace(meta.Branch)
	meta.Semester = strings.TrimSpace(meta.Semester)
	meta.Subject = strings.TrimSpace(meta.Subject)
	meta.Type = strings.TrimSpace(meta.Type)

	if meta.Branch == "" || meta.Semester == "" || meta.Subject == "" || meta.Type == "" || len(files) == 0 {
		return nil, BadRequest("All fields required")
	}

	ft, ok := model.ParseFileType(meta.Type)
	if !ok {
		return nil, BadRequest("Invalid type")
	}

	for _, seg := range []string{meta.Branch, meta.Semester, meta.Subject} {
		if !rule.IsPathSegment(seg) {
			return nil, BadRequest("Invalid path segment")
		}
	}

	cfg := s.deps.Config.Upload
	if cfg.MaxFiles > 0 && len(files) > cfg.MaxFiles {
		return nil, BadRequest(fmt.Sprintf("Too many files (max %d)", cfg.MaxFiles))
	}

	names := make([]string, len(files))

	for i, f := range files {
		name, err := s.checkFile(f)
		if err != nil {
			metrics.ObserveUpload(metrics.ResultRejected)
			return nil, err
		}

		names[i] = name
	}

	ids := make([]string, 0, len(files))

	for i, f := range files {
		rec := &model.FileRecord{
			Filename: names[i],
			Branch:   meta.Branch,
			Semester: meta.Semester,
			Subject:  meta.Subject,
			Type:     ft,
			Status:   model.StatusPending,
		}

		if err := s.store(ctx, rec, f); err != nil {
			metrics.ObserveUpload(metrics.ResultError)
			l.Error().Err(err).Str("key", rec.ObjectKey()).Int("stored", len(ids)).Msg("upload aborted")

			return nil, err
		}

		metrics.ObserveUpload(metrics.ResultSuccess)
		l.Info().Str("id", rec.ID).Str("key", rec.ObjectKey()).Msg("file uploaded")

		s.deps.publishFile(ctx, l, queue.TopicFileUploaded, rec, "", "anonymous")

		ids = append(ids, rec.ID)
	}

	return &types.UploadResult{Message: "Upload successful", Files: ids}, nil
}

// checkFile 校验文件名、大小与内容类型，返回清理后的文件名.
func (s *FileService) checkFile(f types.UploadFile) (string, error) {
	cfg := s.deps.Config.Upload

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(f.Name), "\\", "/"))
	if !rule.IsPathSegment(name) {
		return "", BadRequest("Invalid path segment")
	}

	if cfg.MaxFileSize > 0 && f.Size > cfg.MaxFileSize {
		return "", BadRequest("File too large")
	}

	if !cfg.EnforcePDF {
		return name, nil
	}

	r, err := f.Open()
	if err != nil {
		return "", Upstream("open upload "+name, err)
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", Upstream("read upload "+name, err)
	}

	if !mt.Is(pdfMIME) {
		return "", BadRequest("Only PDF files are allowed")
	}

	return name, nil
}

// store 先写对象再写记录，记录写入失败时删除对象.
func (s *FileService) store(ctx context.Context, rec *model.FileRecord, f types.UploadFile) error {
	key := rec.ObjectKey()

	if err := s.deps.ensurePathFree(ctx, rec, rec.Type); err != nil {
		return err
	}

	r, err := f.Open()
	if err != nil {
		return Upstream("open upload "+rec.Filename, err)
	}
	defer r.Close()

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Upstream("rewind upload "+rec.Filename, err)
	}

	if err := s.deps.Blobs.Upload(ctx, key, r, f.Size, pdfMIME); err != nil {
		return Upstream("upload blob", err)
	}

	rec.UploadDate = s.deps.now()

	if err := s.deps.DB.WithContext(ctx).Create(rec).Error; err != nil {
		if rmErr := s.deps.Blobs.Remove(ctx, key); rmErr != nil {
			l := logger(ctx, "upload")
			l.Error().Err(rmErr).Str("key", key).Msg("remove blob after failed insert")
		}

		return Upstream("insert file record", err)
	}

	return nil
}

// ensurePathFree 目标路径上已有未拒绝的其他记录时返回 BadRequest，
// 对象存储的复制会直接覆盖同名对象.
func (d Deps) ensurePathFree(ctx context.Context, rec *model.FileRecord, typ model.FileType) error {
	q := d.DB.WithContext(ctx).Model(&model.FileRecord{}).
		Where("branch = ? AND semester = ? AND subject = ? AND type = ? AND filename = ? AND status <> ?",
			rec.Branch, rec.Semester, rec.Subject, typ, rec.Filename, model.StatusRejected)
	if rec.ID != "" {
		q = q.Where("id <> ?", rec.ID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return Upstream("check existing file", err)
	}

	if n > 0 {
		return BadRequest("File already exists: " + rec.Filename)
	}

	return nil
}
