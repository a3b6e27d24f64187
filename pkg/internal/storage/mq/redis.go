//go:build !no_redis

package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/papervault/pkg/configs"
)

// DefaultChannelBufferSize 订阅通道缓冲区大小.
const DefaultChannelBufferSize = 100

// metadataChannelKey 记录来源频道，Redis Pub/Sub 只有 payload，消息 ID 无法透传.
const metadataChannelKey = "redis_channel"

// RedisPublisher 基于 Redis Pub/Sub 的 Publisher，投递语义为至多一次.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber 基于 Redis Pub/Sub 的 Subscriber，每个主题一个 PubSub.
type RedisSubscriber struct {
	client *redis.Client
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{
		client:  rdb,
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return pub, sub, nil
}

// Publish 实现 message.Publisher.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		ctx := msg.Context()
		if err := p.client.Publish(ctx, topic, msg.Payload).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Close 关闭 publisher（连接由 subscriber 共享时由其关闭）.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 message.Subscriber.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case rm, ok := <-in:
				if !ok {
					return
				}

				msg := message.NewMessage(watermill.NewUUID(), []byte(rm.Payload))
				msg.Metadata.Set(metadataChannelKey, rm.Channel)
				msg.SetContext(ctx)

				select {
				case out <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}

				// 等待下游确认，保持与其他实现一致的逐条处理语义
				select {
				case <-msg.Acked():
				case <-msg.Nacked():
					s.logger.Info("redis pubsub message nacked, dropped", watermill.LogFields{"topic": topic})
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close 关闭全部订阅与连接.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}
	s.mu.Unlock()

	s.wg.Wait()

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
