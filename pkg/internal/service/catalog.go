package service

import (
	"context"
	"slices"
	"strings"

	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/types"
)

// FileService 目录查询、上传与审核.
type FileService struct {
	deps Deps
}

// NewFileService 创建文件服务.
func NewFileService(deps Deps) *FileService {
	return &FileService{deps: deps}
}

type filter struct {
	column string
	value  string
}

// Branches 已通过文件的全部 branch.
func (s *FileService) Branches(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "branch")
}

// Semesters 指定 branch 下的 semester.
func (s *FileService) Semesters(ctx context.Context, branch string) ([]string, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, BadRequest("Branch parameter required")
	}

	return s.distinct(ctx, "semester", filter{"branch", branch})
}

// Subjects 指定 branch、semester 下的 subject.
func (s *FileService) Subjects(ctx context.Context, branch, semester string) ([]string, error) {
	branch, semester = strings.TrimSpace(branch), strings.TrimSpace(semester)
	if branch == "" || semester == "" {
		return nil, BadRequest("Branch and semester parameters required")
	}

	return s.distinct(ctx, "subject", filter{"branch", branch}, filter{"semester", semester})
}

// Types 指定路径下存在的资料类型.
func (s *FileService) Types(ctx context.Context, branch, semester, subject string) ([]string, error) {
	branch, semester, subject = strings.TrimSpace(branch), strings.TrimSpace(semester), strings.TrimSpace(subject)
	if branch == "" || semester == "" || subject == "" {
		return nil, BadRequest("Branch, semester, and subject parameters required")
	}

	return s.distinct(ctx, "type",
		filter{"branch", branch}, filter{"semester", semester}, filter{"subject", subject})
}

// distinct 查询已通过记录某一列的去重升序值，结果经缓存.
func (s *FileService) distinct(ctx context.Context, column string, filters ...filter) ([]string, error) {
	parts := []string{column}
	for _, f := range filters {
		parts = append(parts, f.value)
	}

	return cache.GetOrSet(ctx, s.deps.Cache, s.cacheKey(parts...), func(ctx context.Context) ([]string, error) {
		var out []string

		q := s.deps.DB.WithContext(ctx).
			Model(&model.FileRecord{}).
			Where("status = ?", model.StatusApproved)
		for _, f := range filters {
			q = q.Where(f.column+" = ?", f.value)
		}

		if err := q.Distinct().Order(column).Pluck(column, &out).Error; err != nil {
			return nil, Upstream("query "+column, err)
		}

		return normalize(out), nil
	})
}

// Files 已通过文件列表，按上传时间倒序.
func (s *FileService) Files(ctx context.Context, query types.CatalogQuery) ([]types.FileView, error) {
	query.Branch = strings.TrimSpace(query.Branch)
	query.Semester = strings.TrimSpace(query.Semester)
	query.Subject = strings.TrimSpace(query.Subject)
	query.Type = strings.TrimSpace(query.Type)

	if query.Type != "" {
		if _, ok := model.ParseFileType(query.Type); !ok {
			return nil, BadRequest("Invalid type")
		}
	}

	key := s.cacheKey("files", query.Branch, query.Semester, query.Subject, query.Type)

	return cache.GetOrSet(ctx, s.deps.Cache, key, func(ctx context.Context) ([]types.FileView, error) {
		q := s.deps.DB.WithContext(ctx).Where("status = ?", model.StatusApproved)

		for _, f := range []filter{
			{"branch", query.Branch},
			{"semester", query.Semester},
			{"subject", query.Subject},
			{"type", query.Type},
		} {
			if f.value != "" {
				q = q.Where(f.column+" = ?", f.value)
			}
		}

		var recs []model.FileRecord
		if err := q.Order("upload_date DESC").Order("id DESC").Find(&recs).Error; err != nil {
			return nil, Upstream("list files", err)
		}

		return s.views(recs), nil
	})
}

// Pending 待审核文件，按上传时间倒序，附带预览链接.
func (s *FileService) Pending(ctx context.Context) ([]types.FileView, error) {
	var recs []model.FileRecord

	err := s.deps.DB.WithContext(ctx).
		Where("status = ?", model.StatusPending).
		Order("upload_date DESC").Order("id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, Upstream("list pending files", err)
	}

	return s.views(recs), nil
}

func (s *FileService) views(recs []model.FileRecord) []types.FileView {
	out := make([]types.FileView, 0, len(recs))
	for i := range recs {
		out = append(out, types.NewFileView(&recs[i], s.deps.Blobs.PublicURL(recs[i].ObjectKey())))
	}

	return out
}

func (s *FileService) cacheKey(parts ...string) string {
	if s.deps.Cache == nil {
		return ""
	}

	return s.deps.Cache.Key(parts...)
}

// normalize 排序去重，各数据库的排序规则不同，这里统一按字节序.
func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	out = append(out, in...)
	slices.Sort(out)

	return slices.Compact(out)
}
