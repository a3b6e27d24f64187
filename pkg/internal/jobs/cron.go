// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/log"
	"github.com/yeisme/papervault/pkg/scheduler"
)

// JobSweepOrphans 孤儿对象巡检任务名.
const JobSweepOrphans = "sweep.orphans"

// RegisterCronJobs 配置业务定时任务：
//   - sweep.cron 周期执行孤儿对象巡检（sweep.enabled 关闭时不注册）
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, sweep *service.SweepService, cfg configs.SweepConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if sweep == nil {
		return errors.New("sweep service is nil")
	}

	if !cfg.Enabled {
		l := log.Component("jobs")
		l.Info().Str("job", JobSweepOrphans).Msg("sweep disabled, job not registered")

		return nil
	}

	return sched.AddCron(ctx, JobSweepOrphans, cfg.Cron, SweepTask(sweep, cfg.DryRun))
}

// SweepTask 返回执行一次巡检的任务函数.
func SweepTask(sweep *service.SweepService, dryRun bool) scheduler.Task {
	return func(ctx context.Context) error {
		_, err := sweep.Run(ctx, dryRun)
		return err
	}
}
