package kafka

import (
	"fmt"
	"strings"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

const (
	defaultGroupID = "itops-pump-diagnosis-consumer" // 默认消费组
	minBytes       = 1
	maxBytes       = 10 * 1024 * 1024
)

type Config struct {
	Brokers []string    `yaml:"brokers"`
	SASL    *SASLConfig `yaml:"sasl,omitempty"`

	// 由调用方根据 measurements/diagnoses 流填充
	Topic   string `yaml:"-"`
	GroupID string `yaml:"-"`
}

type SASLConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Mechanism string `yaml:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// ConfigFor 根据依赖服务中的 MQ 配置与流配置构造客户端配置。
// 未配置用户名时视为无认证。
func ConfigFor(mq config.MQConfig, stream config.KafkaStreamConfig) Config {
	cfg := Config{
		Brokers: []string{fmt.Sprintf("%s:%d", mq.MQHost, mq.MQPort)},
		Topic:   stream.Topic,
		GroupID: stream.ConsumerGroup,
	}
	if mq.Auth.Username != "" {
		cfg.SASL = &SASLConfig{
			Enabled:   true,
			Mechanism: mq.Auth.Mechanism,
			Username:  mq.Auth.Username,
			Password:  mq.Auth.Password,
		}
	}
	return cfg
}

// buildSASLMechanism 根据配置构建 SASL 认证机制。
func buildSASLMechanism(saslCfg *SASLConfig) (sasl.Mechanism, error) {
	if saslCfg == nil || !saslCfg.Enabled {
		log.Infof("SASL 认证未启用")
		return nil, nil
	}

	switch strings.ToUpper(saslCfg.Mechanism) {
	case "PLAIN", "":
		log.Infof("使用 PLAIN 认证机制")
		return plain.Mechanism{Username: saslCfg.Username, Password: saslCfg.Password}, nil
	case "SCRAM-SHA-256":
		mechanism, err := scram.Mechanism(scram.SHA256, saslCfg.Username, saslCfg.Password)
		if err != nil {
			return nil, errors.Wrap(err, "创建 SCRAM-SHA-256 认证失败")
		}
		log.Infof("使用 SCRAM-SHA-256 认证机制")
		return mechanism, nil
	case "SCRAM-SHA-512":
		mechanism, err := scram.Mechanism(scram.SHA512, saslCfg.Username, saslCfg.Password)
		if err != nil {
			return nil, errors.Wrap(err, "创建 SCRAM-SHA-512 认证失败")
		}
		log.Infof("使用 SCRAM-SHA-512 认证机制")
		return mechanism, nil
	default:
		return nil, errors.Errorf("不支持的 SASL 机制: %s", saslCfg.Mechanism)
	}
}
