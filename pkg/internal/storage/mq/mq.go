// Package mq 提供基于 Watermill 的统一消息队列客户端，通过工厂模式支持 NATS（JetStream）与 Redis.
//
// 使用示例：
//
//	client, err := mq.New(ctx, cfg.MQ, cfg.Metrics.Enabled)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	_ = client.Publish(ctx, "pv.file.approved", msg)
//	client.AddHandler("audit", "pv.file.approved", func(m *message.Message) error { return nil })
//	go client.Run(ctx)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/papervault/pkg/configs"
	nlog "github.com/yeisme/papervault/pkg/log"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型（有序）.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Client 封装 watermill Publisher、Subscriber 与 Router.
type Client struct {
	typ        configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	logger     watermill.LoggerAdapter
}

// New 按配置初始化消息队列客户端.
func New(ctx context.Context, cfg configs.MQConfig, metricsEnabled bool) (*Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	if metricsEnabled {
		builder := wmetrics.NewPrometheusMetricsBuilder(prometheus.DefaultRegisterer, "papervault", "mq")
		builder.AddPrometheusRouterMetrics(router)

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("mq client initialized")

	return &Client{typ: cfg.Type, publisher: pub, subscriber: sub, router: router, logger: logger}, nil
}

// NewWithPubSub 使用已有的 Publisher/Subscriber 构造客户端（如 gochannel，用于测试）.
func NewWithPubSub(typ configs.MQType, pub message.Publisher, sub message.Subscriber) (*Client, error) {
	logger := NewLoggerAdapter(nlog.Logger())

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	return &Client{typ: typ, publisher: pub, subscriber: sub, router: router, logger: logger}, nil
}

// Type 当前 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.typ
}

// Publish 发布消息到指定主题.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题，返回原始消息通道，调用方负责 Ack/Nack.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// AddHandler 在 router 上注册只消费不转发的处理器，需在 Run 之前调用.
func (c *Client) AddHandler(name, topic string, h message.NoPublishHandlerFunc) {
	c.router.AddNoPublisherHandler(name, topic, c.subscriber, h)
}

// Run 运行 router，阻塞直到 ctx 结束或 Close.
func (c *Client) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running router 启动完成后关闭的通道.
func (c *Client) Running() chan struct{} {
	return c.router.Running()
}

// HealthCheck 仅检查客户端是否已初始化.
func (c *Client) HealthCheck(context.Context) error {
	if c == nil || c.publisher == nil || c.subscriber == nil {
		return errors.New("mq not initialized")
	}

	return nil
}

// Close 关闭 router、publisher 与 subscriber.
func (c *Client) Close() error {
	var errs []error

	if c.router != nil {
		errs = append(errs, c.router.Close())
	}

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
