package service

import (
	"context"
	"sort"
	"sync"

	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/types"
	"github.com/yeisme/papervault/pkg/metrics"
	"github.com/yeisme/papervault/pkg/queue"
	"github.com/yeisme/papervault/pkg/tracing"
)

// SweepService 对账对象存储与文件记录.
//
// 没有记录的对象是孤儿，超过宽限期后删除；记录存在但对象缺失的只上报不修改.
type SweepService struct {
	deps Deps
	mu   sync.Mutex
}

// NewSweepService 创建巡检服务.
func NewSweepService(deps Deps) *SweepService {
	return &SweepService{deps: deps}
}

// Run 执行一次巡检，同一时间只有一次在运行.
func (s *SweepService) Run(ctx context.Context, dryRun bool) (*types.SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "service.Sweep")
	defer span.End()

	l := logger(ctx, "sweep")

	report := &types.SweepReport{
		StartedAt: s.deps.now(),
		DryRun:    dryRun,
		Orphans:   []string{},
		Removed:   []string{},
		Dangling:  []string{},
	}

	objects, err := s.deps.Blobs.List(ctx)
	if err != nil {
		return nil, Upstream("list blobs", err)
	}

	var recs []model.FileRecord

	err = s.deps.DB.WithContext(ctx).
		Select("id", "filename", "branch", "semester", "subject", "type", "status").
		Where("status IN ?", []model.Status{model.StatusPending, model.StatusApproved}).
		Find(&recs).Error
	if err != nil {
		return nil, Upstream("list file records", err)
	}

	known := make(map[string]struct{}, len(recs))
	for i := range recs {
		known[recs[i].ObjectKey()] = struct{}{}
	}

	present := make(map[string]struct{}, len(objects))
	cutoff := report.StartedAt.Add(-s.deps.Config.Sweep.GracePeriod)

	for _, obj := range objects {
		report.Scanned++
		present[obj.Key] = struct{}{}

		if _, ok := known[obj.Key]; ok {
			continue
		}

		// 宽限期内的对象可能正在上传
		if obj.LastModified.After(cutoff) {
			continue
		}

		report.Orphans = append(report.Orphans, obj.Key)

		if dryRun {
			continue
		}

		if err := s.deps.Blobs.Remove(ctx, obj.Key); err != nil {
			l.Warn().Err(err).Str("key", obj.Key).Msg("remove orphan failed")
			continue
		}

		report.Removed = append(report.Removed, obj.Key)
		s.publishRemoved(ctx, obj)
	}

	for i := range recs {
		if _, ok := present[recs[i].ObjectKey()]; !ok {
			report.Dangling = append(report.Dangling, recs[i].ID)
		}
	}

	sort.Strings(report.Orphans)
	sort.Strings(report.Removed)
	sort.Strings(report.Dangling)

	metrics.ObserveSweep(len(report.Orphans), len(report.Removed))

	l.Info().
		Bool("dry_run", dryRun).
		Int("scanned", report.Scanned).
		Int("orphans", len(report.Orphans)).
		Int("removed", len(report.Removed)).
		Int("dangling", len(report.Dangling)).
		Msg("sweep finished")

	return report, nil
}

func (s *SweepService) publishRemoved(ctx context.Context, obj types.ObjectInfo) {
	if !s.deps.eventEnabled(queue.TopicSweepOrphanRemoved) {
		return
	}

	payload := queue.OrphanRemovedPayload{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified}
	if err := queue.PublishOrphanRemoved(ctx, s.deps.Events, payload, eventOpts(ctx)...); err != nil {
		l := logger(ctx, "sweep")
		l.Warn().Err(err).Str("key", obj.Key).Msg("publish event failed")
	}
}
