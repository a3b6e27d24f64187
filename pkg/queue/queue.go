// Package queue 定义审核事件的主题、负载与消息信封.
//
// 概览
//   - 采用发布/订阅模型，上传与审核操作完成后发布事件，审计等下游订阅消费
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic）
//
// 消息信封 JSON 结构
//
//	{
//	  "header": {
//	    "topic": "pv.file.approved",
//	    "trace_id": "optional-trace-id",
//	    "producer": "papervault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { "file_id": "01J...", "key": "CSE/3/DSA/PYQ/a.pdf", ... }
//	}
//
// 发布/订阅示例
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicFileApproved, payload,
//	  queue.WithTraceID("trace-xyz"),
//	  queue.WithProducer("papervault"),
//	)
//	_ = client.Publish(ctx, queue.TopicFileApproved, msg)
//
//	client.AddHandler("audit", queue.TopicFileApproved, func(m *message.Message) error {
//	  env, err := queue.ParseFileEvent(m)
//	  ...
//	})
//
// 注意事项
//  1. occurred_at 为 UTC
//  2. 消费者应忽略未知字段
//  3. 发布是尽力而为的，事件丢失不影响审核结果
package queue

import (
	"context"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

// PublishFileEvent 发布文件事件.
func PublishFileEvent(ctx context.Context, pub Publisher, topic string, payload FileEventPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// ParseFileEvent 将 Watermill 消息解析为文件事件.
func ParseFileEvent(msg *message.Message) (Message[FileEventPayload], error) {
	return ParseWatermillMessage[FileEventPayload](msg)
}

// PublishOrphanRemoved 发布巡检清理事件.
func PublishOrphanRemoved(ctx context.Context, pub Publisher, payload OrphanRemovedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicSweepOrphanRemoved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, TopicSweepOrphanRemoved, msg)
}

// Publisher 事件发布端，由 mq.Client 实现.
type Publisher interface {
	Publish(ctx context.Context, topic string, messages ...*message.Message) error
}
