package jobs_test

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
	"github.com/yeisme/papervault/pkg/internal/jobs"
	"github.com/yeisme/papervault/pkg/internal/storage/mq"
	"github.com/yeisme/papervault/pkg/queue"
)

func TestAuditFileEvent(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicFileApproved, queue.FileEventPayload{FileID: "01J", Status: "approved"})
	require.NoError(t, err)
	assert.NoError(t, jobs.AuditFileEvent(msg))

	// 无法解析的消息直接确认
	bad := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	assert.NoError(t, jobs.AuditFileEvent(bad))
	assert.NoError(t, jobs.AuditOrphanRemoved(bad))
}

func TestRegisterAuditHandlers(t *testing.T) {
	require.Error(t, jobs.RegisterAuditHandlers(nil))

	// 发布阻塞到订阅者确认，Publish 返回即说明处理器已执行
	ps := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	client, err := mq.NewWithPubSub(configs.MQTypeNATS, ps, ps)
	require.NoError(t, err)

	require.NoError(t, jobs.RegisterAuditHandlers(client))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() { _ = client.Run(ctx) }()

	select {
	case <-client.Running():
	case <-ctx.Done():
		t.Fatal("router did not start")
	}

	defer client.Close()

	msg, err := queue.NewWatermillMessage(queue.TopicFileUploaded, queue.FileEventPayload{FileID: "01J", Status: "pending"})
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, queue.TopicFileUploaded, msg))
}
