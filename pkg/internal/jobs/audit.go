package jobs

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/papervault/pkg/internal/storage/mq"
	"github.com/yeisme/papervault/pkg/log"
	"github.com/yeisme/papervault/pkg/queue"
)

// RegisterAuditHandlers 为每个事件主题注册审计日志处理器，需在 client.Run 之前调用.
func RegisterAuditHandlers(client *mq.Client) error {
	if client == nil {
		return errors.New("mq client is nil")
	}

	for _, topic := range queue.FileTopics() {
		client.AddHandler("audit."+topic, topic, AuditFileEvent)
	}

	client.AddHandler("audit."+queue.TopicSweepOrphanRemoved, queue.TopicSweepOrphanRemoved, AuditOrphanRemoved)

	return nil
}

// AuditFileEvent 记录文件事件；无法解析的消息记录后丢弃，避免反复重投.
func AuditFileEvent(msg *message.Message) error {
	l := log.Component("audit")

	env, err := queue.ParseFileEvent(msg)
	if err != nil {
		l.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed file event")
		return nil
	}

	p := env.Payload
	l.Info().
		Str("topic", env.Header.Topic).
		Str("trace_id", env.Header.TraceID).
		Str("id", p.FileID).
		Str("key", p.Key).
		Str("status", p.Status).
		Str("type", p.Type).
		Str("prev_type", p.PrevType).
		Str("actor", p.Actor).
		Time("occurred_at", env.Header.OccurredAt).
		Msg("file event")

	return nil
}

// AuditOrphanRemoved 记录巡检删除的对象.
func AuditOrphanRemoved(msg *message.Message) error {
	l := log.Component("audit")

	env, err := queue.ParseWatermillMessage[queue.OrphanRemovedPayload](msg)
	if err != nil {
		l.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed sweep event")
		return nil
	}

	l.Info().
		Str("topic", env.Header.Topic).
		Str("key", env.Payload.Key).
		Int64("size", env.Payload.Size).
		Time("last_modified", env.Payload.LastModified).
		Msg("orphan removed")

	return nil
}
