package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/metrics"
	"github.com/yeisme/papervault/pkg/queue"
	"github.com/yeisme/papervault/pkg/tracing"
)

// 审核结果文案.
const (
	MsgApproved = "File approved"
	MsgRejected = "File rejected"
	MsgDeleted  = "File deleted"
	MsgMoved    = "File moved successfully"
)

const actorAdmin = "admin"

// Approve 通过审核，重复通过会刷新 approval_date.
func (s *FileService) Approve(ctx context.Context, id string) (msg string, err error) {
	ctx, done := s.begin(ctx, "approve", id)
	defer func() { done(err) }()

	l := logger(ctx, "moderation")

	rec, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	if !rec.Status.CanTransition(model.StatusApproved) {
		return "", BadRequest("Only pending files can be approved")
	}

	now := s.deps.now()

	err = s.deps.DB.WithContext(ctx).Model(rec).Updates(map[string]any{
		"status":        model.StatusApproved,
		"approval_date": now,
	}).Error
	if err != nil {
		return "", Upstream("approve file", err)
	}

	rec.Status = model.StatusApproved
	rec.ApprovalDate = &now

	l.Info().Str("id", id).Str("key", rec.ObjectKey()).Msg("file approved")

	s.deps.invalidateCatalog(ctx, l)
	s.deps.publishFile(ctx, l, queue.TopicFileApproved, rec, "", actorAdmin)

	return MsgApproved, nil
}

// Reject 删除对象；已通过的文件删除记录，其他状态标记为 rejected.
func (s *FileService) Reject(ctx context.Context, id string) (msg string, err error) {
	ctx, done := s.begin(ctx, "reject", id)
	defer func() { done(err) }()

	l := logger(ctx, "moderation")

	rec, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	key := rec.ObjectKey()
	if err := s.deps.Blobs.Remove(ctx, key); err != nil {
		return "", Upstream("remove blob", err)
	}

	if rec.Status.CanTransition(model.StatusDeleted) {
		if err := s.deps.DB.WithContext(ctx).Delete(rec).Error; err != nil {
			return "", Upstream("delete file record", err)
		}

		l.Info().Str("id", id).Str("key", key).Msg("approved file deleted")

		s.deps.invalidateCatalog(ctx, l)
		s.deps.publishFile(ctx, l, queue.TopicFileDeleted, rec, "", actorAdmin)

		return MsgDeleted, nil
	}

	err = s.deps.DB.WithContext(ctx).Model(rec).Update("status", model.StatusRejected).Error
	if err != nil {
		return "", Upstream("reject file", err)
	}

	rec.Status = model.StatusRejected

	l.Info().Str("id", id).Str("key", key).Msg("file rejected")

	s.deps.invalidateCatalog(ctx, l)
	s.deps.publishFile(ctx, l, queue.TopicFileRejected, rec, "", actorAdmin)

	return MsgRejected, nil
}

// Move 修改已通过文件的类型并移动对象.
func (s *FileService) Move(ctx context.Context, id, newType string) (msg string, err error) {
	ctx, done := s.begin(ctx, "move", id)
	defer func() { done(err) }()

	l := logger(ctx, "moderation")

	to, ok := model.ParseFileType(strings.TrimSpace(newType))
	if !ok {
		return "", BadRequest("Invalid new type")
	}

	rec, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}

	if rec.Status != model.StatusApproved {
		return "", BadRequest("Only approved files can be moved")
	}

	if rec.Type == to {
		return MsgMoved, nil
	}

	if err := s.deps.ensurePathFree(ctx, rec, to); err != nil {
		return "", err
	}

	from := rec.Type
	src, dst := rec.ObjectKey(), rec.ObjectKeyFor(to)

	if err := s.deps.Blobs.Move(ctx, src, dst); err != nil {
		return "", Upstream("move blob", err)
	}

	if err := s.deps.DB.WithContext(ctx).Model(rec).Update("type", to).Error; err != nil {
		if mvErr := s.deps.Blobs.Move(ctx, dst, src); mvErr != nil {
			l.Error().Err(mvErr).Str("id", id).Str("src", dst).Str("dst", src).Msg("move blob back failed")
		}

		return "", Upstream("update file type", err)
	}

	rec.Type = to

	l.Info().Str("id", id).Str("from", string(from)).Str("to", string(to)).Msg("file moved")

	s.deps.invalidateCatalog(ctx, l)
	s.deps.publishFile(ctx, l, queue.TopicFileMoved, rec, from, actorAdmin)

	return MsgMoved, nil
}

// find 读取记录，不存在返回 NotFound.
func (s *FileService) find(ctx context.Context, id string) (*model.FileRecord, error) {
	var rec model.FileRecord

	err := s.deps.DB.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("file %s not found", id)
	}

	if err != nil {
		return nil, Upstream("load file "+id, err)
	}

	return &rec, nil
}

// begin 开启审核 span，返回的 done 记录指标并结束 span.
func (s *FileService) begin(ctx context.Context, action, id string) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "service."+action)
	span.SetAttributes(attribute.String("file.id", id))

	return ctx, func(err error) {
		metrics.ObserveModeration(action, err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}
}
