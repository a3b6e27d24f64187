package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage/mq"
	"github.com/yeisme/papervault/pkg/internal/types"
	"github.com/yeisme/papervault/pkg/queue"
)

func TestSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.approved(t, meta("CSE", "3", "DSA", "PYQ"), "kept.pdf")
	pendingID := e.upload(t, meta("CSE", "3", "DSA", "CT"), "pending.pdf")
	rejectedID := e.upload(t, meta("CSE", "3", "DSA", "Notes"), "rejected.pdf")
	_, err := e.files.Reject(ctx, rejectedID)
	require.NoError(t, err)

	// 旧孤儿与宽限期内的新孤儿
	e.blobs.put("CSE/3/DSA/PYQ/orphan.pdf", e.clock.Now().Add(-time.Hour))
	e.blobs.put("CSE/3/DSA/PYQ/fresh.pdf", e.clock.Now().Add(-time.Minute))

	// pending 记录的对象丢失
	require.NoError(t, e.blobs.Remove(ctx, "CSE/3/DSA/CT/pending.pdf"))

	sweep := service.NewSweepService(e.deps)

	dry, err := sweep.Run(ctx, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 3, dry.Scanned)
	assert.Equal(t, []string{"CSE/3/DSA/PYQ/orphan.pdf"}, dry.Orphans)
	assert.Empty(t, dry.Removed)
	assert.Equal(t, []string{pendingID}, dry.Dangling)
	assert.True(t, e.blobs.has("CSE/3/DSA/PYQ/orphan.pdf"))

	report, err := sweep.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"CSE/3/DSA/PYQ/orphan.pdf"}, report.Removed)
	assert.False(t, e.blobs.has("CSE/3/DSA/PYQ/orphan.pdf"))
	assert.True(t, e.blobs.has("CSE/3/DSA/PYQ/fresh.pdf"))
	assert.True(t, e.blobs.has("CSE/3/DSA/PYQ/kept.pdf"))

	// 记录不会被修改
	assert.Equal(t, pendingID, e.record(t, pendingID).ID)
}

func TestSweep_EmptyReportHasLists(t *testing.T) {
	e := newEnv(t)

	report, err := service.NewSweepService(e.deps).Run(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, report.Orphans)
	assert.NotNil(t, report.Removed)
	assert.NotNil(t, report.Dangling)
}

func TestModeration_PublishesEvents(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	client, err := mq.NewWithPubSub(configs.MQTypeNATS, ps, ps)
	require.NoError(t, err)

	defer client.Close()

	e.cfg.Events = configs.EventsConfig{
		Enabled: true,
		File:    configs.FileEventsConfig{Uploaded: true, Approved: true, Moved: true},
	}
	deps := e.deps
	deps.Events = client
	files := service.NewFileService(deps)

	uploaded, err := client.Subscribe(ctx, queue.TopicFileUploaded)
	require.NoError(t, err)
	approved, err := client.Subscribe(ctx, queue.TopicFileApproved)
	require.NoError(t, err)
	moved, err := client.Subscribe(ctx, queue.TopicFileMoved)
	require.NoError(t, err)

	res, err := files.Upload(ctx, meta("CSE", "3", "DSA", "PYQ"), []types.UploadFile{pdf("a.pdf")})
	require.NoError(t, err)

	id := res.Files[0]

	_, err = files.Approve(ctx, id)
	require.NoError(t, err)
	_, err = files.Move(ctx, id, "CT")
	require.NoError(t, err)

	expect := func(ch <-chan *message.Message, status, typ, prev string) {
		t.Helper()

		select {
		case m := <-ch:
			env, err := queue.ParseFileEvent(m)
			require.NoError(t, err)
			m.Ack()

			assert.Equal(t, id, env.Payload.FileID)
			assert.Equal(t, status, env.Payload.Status)
			assert.Equal(t, typ, env.Payload.Type)
			assert.Equal(t, prev, env.Payload.PrevType)
			assert.Equal(t, "papervault", env.Header.Producer)
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}

	expect(uploaded, "pending", "PYQ", "")
	expect(approved, "approved", "PYQ", "")
	expect(moved, "approved", "CT", "PYQ")
}

func TestModeration_EventsDisabledPerTopic(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	client, err := mq.NewWithPubSub(configs.MQTypeNATS, ps, ps)
	require.NoError(t, err)

	defer client.Close()

	e.cfg.Events = configs.EventsConfig{Enabled: true}
	deps := e.deps
	deps.Events = client

	ch, err := client.Subscribe(ctx, queue.TopicFileUploaded)
	require.NoError(t, err)

	_, err = service.NewFileService(deps).Upload(ctx, meta("CSE", "3", "DSA", "PYQ"), []types.UploadFile{pdf("a.pdf")})
	require.NoError(t, err)

	select {
	case m := <-ch:
		t.Fatalf("unexpected event %s", m.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}
