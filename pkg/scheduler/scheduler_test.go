package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/papervault/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func waitStatus(t *testing.T, s *scheduler.Scheduler, name string, want scheduler.JobStatus) scheduler.JobInfo {
	t.Helper()

	var info scheduler.JobInfo

	require.Eventually(t, func() bool {
		var err error
		info, err = s.GetJobInfoByName(name)

		return err == nil && info.Status == want && !info.LastRun.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	return info
}

func TestAddCron_Duplicate(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron(context.Background(), "a", "0 0 1 1 *", noop))
	require.Error(t, s.AddCron(context.Background(), "a", "0 0 1 1 *", noop))
	require.Error(t, s.AddCron(context.Background(), "bad", "not a cron", noop))

	infos := s.GetJobInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, scheduler.StatusScheduled, infos[0].Status)
}

func TestRunNow(t *testing.T) {
	s := newScheduler(t)
	ran := make(chan struct{}, 1)

	require.NoError(t, s.AddCron(context.Background(), "ok", "0 0 1 1 *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))

	require.NoError(t, s.RunNow("ok"))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	info := waitStatus(t, s, "ok", scheduler.StatusScheduled)
	assert.False(t, info.LastSuccess.IsZero())
	assert.Empty(t, info.Error)
}

func TestRunNow_RecordsError(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "fail", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, s.RunNow("fail"))

	info := waitStatus(t, s, "fail", scheduler.StatusError)
	assert.Equal(t, "boom", info.Error)
	assert.True(t, info.LastSuccess.IsZero())
}

func TestRunNow_Unknown(t *testing.T) {
	s := newScheduler(t)

	err := s.RunNow("missing")
	require.ErrorIs(t, err, scheduler.ErrJobNotFound)

	_, err = s.GetJobInfoByName("missing")
	require.ErrorIs(t, err, scheduler.ErrJobNotFound)
	require.ErrorIs(t, s.RemoveJobByName("missing"), scheduler.ErrJobNotFound)
}

func TestJobIDStableAcrossSchedulers(t *testing.T) {
	noop := func(context.Context) error { return nil }

	a, b := newScheduler(t), newScheduler(t)
	require.NoError(t, a.AddCron(context.Background(), "sweep", "0 0 1 1 *", noop))
	require.NoError(t, b.AddCron(context.Background(), "sweep", "0 0 1 1 *", noop))

	ia, err := a.GetJobInfoByName("sweep")
	require.NoError(t, err)
	ib, err := b.GetJobInfoByName("sweep")
	require.NoError(t, err)

	assert.NotEmpty(t, ia.ID)
	assert.Equal(t, ia.ID, ib.ID)
}
