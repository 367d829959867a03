package mqtt

import (
	"context"
	"strings"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultTopic 现场网关按机组推送：pump/{asset_id}/measurement
	DefaultTopic = "pump/+/measurement"

	clientIDPrefix        = "itops-pump-diagnosis-"
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// Config MQTT 订阅配置
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topic          string
	QoS            byte
	ConnectTimeout time.Duration
}

// Subscriber 订阅测量记录主题，把每条消息交给 handler。
type Subscriber struct {
	client  pmqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// NewSubscriber 创建订阅者，连接在 Subscribe 时建立。
func NewSubscriber(cfg Config) (core.MeasurementSubscriber, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker 地址为空")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = clientIDPrefix + uuid.NewString()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	opts := pmqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetAutoAckDisabled(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(func(pmqtt.Client) {
			log.Infof("已连接 MQTT broker: %s", cfg.Broker)
		}).
		SetConnectionLostHandler(func(_ pmqtt.Client, err error) {
			log.Warnf("MQTT 连接断开: %v", err)
		})

	return &Subscriber{
		client:  pmqtt.NewClient(opts),
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.ConnectTimeout,
	}, nil
}

// TopicToAssetID 从 pump/{asset_id}/measurement 中解析机组编号。
func TopicToAssetID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "pump" || parts[2] != "measurement" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Subscribe 连接并订阅，阻塞至 ctx 结束。
func (s *Subscriber) Subscribe(ctx context.Context, handler core.MessageHandler) error {
	if s.client == nil {
		return errors.New("mqtt client 未初始化")
	}
	if !s.client.IsConnected() {
		if err := wait(s.client.Connect(), s.timeout); err != nil {
			return errors.Wrap(err, "连接 MQTT broker 失败")
		}
	}

	if err := wait(s.client.Subscribe(s.topic, s.qos, s.onMessage(ctx, handler)), s.timeout); err != nil {
		return errors.Wrapf(err, "订阅 %s 失败", s.topic)
	}
	log.Infof("MQTT 已订阅 %s QoS=%d", s.topic, s.qos)

	<-ctx.Done()
	if err := wait(s.client.Unsubscribe(s.topic), s.timeout); err != nil {
		log.Warnf("取消订阅 %s 失败: %v", s.topic, err)
	}
	return ctx.Err()
}

// onMessage handler 成功后才确认；失败的 QoS 1/2 消息在重连后由 broker 重发
func (s *Subscriber) onMessage(ctx context.Context, handler core.MessageHandler) pmqtt.MessageHandler {
	return func(_ pmqtt.Client, m pmqtt.Message) {
		assetID, ok := TopicToAssetID(m.Topic())
		if !ok {
			log.Warnf("MQTT 主题格式不符，丢弃: %q", m.Topic())
			m.Ack()
			return
		}
		msg := core.KafkaMessage{
			Topic:     m.Topic(),
			Key:       assetID,
			Value:     m.Payload(),
			Offset:    int64(m.MessageID()),
			Timestamp: time.Now(),
		}
		if err := handler(ctx, msg); err != nil {
			log.Errorw("mqtt 消息处理失败，不确认", "topic", m.Topic(), "asset_id", assetID, "err", err)
			return
		}
		m.Ack()
	}
}

// Close 断开连接
func (s *Subscriber) Close() error {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

func wait(token pmqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errors.Errorf("等待超时（%v）", timeout)
	}
	return token.Error()
}
