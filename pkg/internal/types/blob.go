// Package types 定义 handler 与 service 之间传递的请求/响应结构.
package types

import "time"

// ObjectInfo 对象存储中的一个对象.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}
