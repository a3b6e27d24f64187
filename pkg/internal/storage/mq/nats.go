package mq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/papervault/pkg/configs"
)

const (
	drainTimeout   = 10 * time.Second
	flusherTimeout = 5 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsOptions 连接选项，认证按 JWT、NKey、用户名密码的顺序择一.
func natsOptions(cfg *configs.MQNATSConfig) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.PingInterval(cfg.PingInterval),
		nats.ReconnectBufSize(cfg.ReconnectBuf),
		nats.DrainTimeout(drainTimeout),
		nats.FlusherTimeout(flusherTimeout),
		nats.RetryOnFailedConnect(true),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nats.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		opt, err := nats.NkeyOptionFromSeed(cfg.NKey)
		if err != nil {
			return nil, fmt.Errorf("load nkey seed: %w", err)
		}

		opts = append(opts, opt)
	case cfg.User != "":
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	return opts, nil
}

func jetStreamConfig(cfg *configs.MQNATSConfig) wmnats.JetStreamConfig {
	if !cfg.JetStream {
		return wmnats.JetStreamConfig{Disabled: true}
	}

	return wmnats.JetStreamConfig{
		AutoProvision: cfg.AutoProvision,
		TrackMsgId:    cfg.TrackMsgID,
		AckAsync:      cfg.AckAsync,
		DurablePrefix: cfg.DurablePrefix,
	}
}

// natsFactory 审核事件走 NATS core，开启 jetstream 后获得持久化与至少一次投递.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter,
) (message.Publisher, message.Subscriber, error) {
	nc := &cfg.NATS
	url := strings.Join(nc.Servers(), ",")
	opts, err := natsOptions(nc)
	if err != nil {
		return nil, nil, err
	}

	js := jetStreamConfig(nc)
	marshaler := &wmnats.NATSMarshaler{}

	logger.Info("nats event stream", watermill.LogFields{
		"url":         url,
		"jetstream":   nc.JetStream,
		"queue_group": nc.QueueGroup,
	})

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              url,
		NatsOptions:      opts,
		JetStream:        js,
		Unmarshaler:      marshaler,
		QueueGroupPrefix: nc.QueueGroup,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
