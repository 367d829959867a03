package config

// NewTestConfigManager 用给定配置构造不依赖文件的管理器，仅供测试使用
func NewTestConfigManager(cfg *Config) *ConfigManager {
	if cfg == nil {
		cfg = &Config{AppConfig: *defaultAppConfig()}
	}
	return &ConfigManager{
		config: cfg,
		stopCh: make(chan struct{}),
	}
}
