package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/jobs"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/scheduler"
)

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)

	t.Cleanup(func() { _ = sched.Stop() })

	sweep := service.NewSweepService(service.Deps{Config: &configs.AppConfig{}})

	require.Error(t, jobs.RegisterCronJobs(context.Background(), nil, sweep, configs.SweepConfig{}))
	require.Error(t, jobs.RegisterCronJobs(context.Background(), sched, nil, configs.SweepConfig{}))

	// 关闭时不注册
	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, sweep, configs.SweepConfig{Enabled: false}))
	assert.Empty(t, sched.GetJobInfos())

	cfg := configs.SweepConfig{Enabled: true, Cron: "*/30 * * * *", GracePeriod: time.Minute}
	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, sweep, cfg))

	info, err := sched.GetJobInfoByName(jobs.JobSweepOrphans)
	require.NoError(t, err)
	assert.Equal(t, "*/30 * * * *", info.CronExpr)
}
