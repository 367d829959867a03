package opensearch

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

type OpenSearchConfig struct {
	Hosts              []string      `yaml:"hosts"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// ConfigFor 由依赖服务配置生成客户端配置，protocol 为空时按 http 处理。
func ConfigFor(dep config.DepOpenSearchConfig) OpenSearchConfig {
	protocol := dep.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return OpenSearchConfig{
		Hosts:              []string{fmt.Sprintf("%s://%s:%d", protocol, dep.Host, dep.Port)},
		Username:           dep.User,
		Password:           dep.Password,
		Timeout:            defaultTimeout,
		InsecureSkipVerify: true,
	}
}

// NewClient 基于配置初始化官方 OpenSearch SDK 客户端。
func NewClient(cfg OpenSearchConfig) (*opensearchsdk.Client, error) {
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("opensearch hosts 不能为空")
	}
	addresses := normalizeHosts(cfg.Hosts)
	if len(addresses) == 0 {
		return nil, errors.New("opensearch hosts 经处理后为空")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	client, err := opensearchsdk.NewClient(opensearchsdk.Config{
		Addresses: addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: timeout,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "初始化 OpenSearch SDK 失败")
	}
	return client, nil
}

// normalizeHosts 去空白、补协议头、去尾部斜杠
func normalizeHosts(hosts []string) []string {
	addresses := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		addresses = append(addresses, strings.TrimRight(host, "/"))
	}
	return addresses
}
