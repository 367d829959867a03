package cache

import (
	"fmt"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
)

const (
	keyPrefix         = "itops_pump_diagnosis:report"
	connectSentinel   = "sentinel"
	defaultRedisPort  = 6379
	defaultSentinelPt = 26379
)

// reportKey 报告缓存键：itops_pump_diagnosis:report:<id>:<format>
func reportKey(id uint64, format string) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, id, format)
}

// RedisConfigFor 由依赖服务配置生成 Redis 连接配置
func RedisConfigFor(dep config.DepRedisConfig) RedisConfig {
	info := dep.ConnectInfo
	cfg := RedisConfig{
		Username: info.Username,
		Password: info.Password,
	}
	if dep.ConnectType == connectSentinel {
		port := info.SentinelPort
		if port == 0 {
			port = defaultSentinelPt
		}
		cfg.MasterName = info.MasterGroupName
		cfg.SentinelAddrs = []string{fmt.Sprintf("%s:%d", info.SentinelHost, port)}
		cfg.SentinelUsername = info.SentinelUsername
		cfg.SentinelPassword = info.SentinelPassword
		return cfg
	}
	port := info.Port
	if port == 0 {
		port = defaultRedisPort
	}
	cfg.Host = fmt.Sprintf("%s:%d", info.Host, port)
	return cfg
}
