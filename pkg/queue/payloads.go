package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID，来自当前请求的 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileEventPayload 文件生命周期事件负载.
type FileEventPayload struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Key      string `json:"key"`
	Branch   string `json:"branch"`
	Semester string `json:"semester"`
	Subject  string `json:"subject"`
	Type     string `json:"type"`
	// PrevType 仅 moved 事件携带.
	PrevType string `json:"prev_type,omitempty"`
	Status   string `json:"status"`
	// Actor 触发操作的角色，如 admin、anonymous.
	Actor string `json:"actor,omitempty"`
}

// OrphanRemovedPayload 巡检删除无主对象.
type OrphanRemovedPayload struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
