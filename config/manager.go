package config

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
)

const (
	defaultRefreshInterval = 30 * time.Second
	reloadSettleDelay      = 100 * time.Millisecond
	appConfigDirName       = "data"
	appConfigFileName      = "app_config.yaml"
)

// ReloadListener 配置重新加载后回调，参数为新配置
type ReloadListener func(cfg *Config)

// ConfigManager 配置管理器
// config.yaml 只读；app_config.yaml 由远程配置服务回写，两者任一变动都会触发重新加载。
type ConfigManager struct {
	mu            sync.RWMutex
	config        *Config // 当前生效的配置（基础配置 + 业务配置合并后）
	configPath    string  // config.yaml 文件路径（只读）
	appConfigPath string  // app_config.yaml 文件路径（可写）
	listeners     []ReloadListener

	// 远程配置
	httpClient    *http.Client
	lastRemoteApp *RemoteAppConfig // 上次远程获取的配置（用于变更检测）

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewConfigManager 创建配置管理器
func NewConfigManager(configPath string) (*ConfigManager, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "初始加载配置失败")
	}

	appConfigPath := filepath.Join(filepath.Dir(configPath), appConfigDirName, appConfigFileName)
	cfg.AppConfig = *loadOrInitAppConfig(appConfigPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "创建文件 watcher 失败")
	}
	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return nil, errors.Wrap(err, "添加配置文件到 watch 列表失败")
	}
	// app_config.yaml 可能尚不存在，远程配置首次写入后再加入
	if _, err := os.Stat(appConfigPath); err == nil {
		if err := watcher.Add(appConfigPath); err != nil {
			log.Warnf("添加业务配置文件到 watch 列表失败: %v", err)
		}
	}

	return &ConfigManager{
		config:        cfg,
		configPath:    configPath,
		appConfigPath: appConfigPath,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		watcher:       watcher,
		stopCh:        make(chan struct{}),
	}, nil
}

// loadOrInitAppConfig 读取业务配置，读取失败时落盘一份默认值
func loadOrInitAppConfig(path string) *AppConfig {
	appCfg, err := LoadAppConfig(path)
	if err == nil {
		appCfg.Normalize()
		return appCfg
	}

	log.Warnf("加载业务配置失败: %v，使用默认配置", err)
	appCfg = defaultAppConfig()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warnf("创建 data 目录失败: %v", err)
		return appCfg
	}
	if err := SaveAppConfig(path, appCfg); err != nil {
		log.Warnf("写入默认业务配置失败: %v", err)
	}
	return appCfg
}

// Start 启动配置管理（文件 watch + 定时刷新），阻塞至 ctx 结束
func (m *ConfigManager) Start(ctx context.Context) error {
	remote := m.GetConfig().AppConfigService.Enabled
	if remote {
		if err := m.fetchAndWriteRemoteConfig(); err != nil {
			log.Warnf("启动时拉取远程配置失败: %v，使用本地配置", err)
		}
	}

	go m.watchConfigFile(ctx)
	if remote {
		go m.runRemoteConfigRefresher(ctx)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Stop 停止配置管理，可重复调用
func (m *ConfigManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
	})
}

// GetConfig 获取当前配置（线程安全）。返回值视为只读。
func (m *ConfigManager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetAppConfigPath 获取业务配置文件路径
func (m *ConfigManager) GetAppConfigPath() string {
	return m.appConfigPath
}

// OnReload 注册配置重新加载回调
func (m *ConfigManager) OnReload(fn ReloadListener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// watchConfigFile 监控配置文件变动
func (m *ConfigManager) watchConfigFile(ctx context.Context) {
	log.Info("启动配置文件 watch 协程")

	for {
		select {
		case <-ctx.Done():
			log.Info("配置文件 watch 协程收到停止信号")
			return
		case <-m.stopCh:
			log.Info("配置文件 watch 协程收到停止信号")
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Infof("检测到配置文件变动: %s", event.Name)
			// 编辑器保存时可能分多次写入
			time.Sleep(reloadSettleDelay)
			if err := m.reload(); err != nil {
				log.Errorf("重新加载配置失败: %v", err)
				continue
			}
			log.Info("配置重新加载成功")
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("配置文件 watch 错误: %v", err)
		}
	}
}

// runRemoteConfigRefresher 定时刷新远程配置
func (m *ConfigManager) runRemoteConfigRefresher(ctx context.Context) {
	interval := m.GetConfig().AppConfigService.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	log.Infof("启动远程配置定时刷新协程（间隔: %v）", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("远程配置定时刷新协程收到停止信号")
			return
		case <-m.stopCh:
			log.Info("远程配置定时刷新协程收到停止信号")
			return
		case <-ticker.C:
			if err := m.fetchAndWriteRemoteConfig(); err != nil {
				log.Errorf("定时拉取远程配置失败: %v", err)
			}
		}
	}
}

// fetchAndWriteRemoteConfig 获取远程配置并写入 app_config.yaml
func (m *ConfigManager) fetchAndWriteRemoteConfig() error {
	remoteApp, err := m.fetchRemoteAppConfig()
	if err != nil {
		return errors.Wrap(err, "获取远程配置失败")
	}

	if m.lastRemoteApp != nil && reflect.DeepEqual(m.lastRemoteApp, remoteApp) {
		log.Debug("远程配置无变化，跳过写入")
		return nil
	}

	if err := m.writeAppConfig(remoteApp.ToAppConfig()); err != nil {
		return errors.Wrap(err, "写入业务配置失败")
	}
	m.lastRemoteApp = remoteApp
	log.Info("远程配置已更新并写入 app_config.yaml")

	// watcher 可能尚未启动，这里直接重新加载
	if err := m.reload(); err != nil {
		log.Warnf("写入后重新加载配置失败: %v", err)
	}
	return nil
}

// fetchRemoteAppConfig 获取远程业务配置（设备管理平台 API 格式）
func (m *ConfigManager) fetchRemoteAppConfig() (*RemoteAppConfig, error) {
	endpoint := m.GetConfig().AppConfigService.Endpoint
	if endpoint == "" {
		return nil, errors.New("远程配置接口地址为空")
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "创建请求失败")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "请求远程配置失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("远程配置接口返回非 200 状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "读取响应体失败")
	}

	var remoteApp RemoteAppConfig
	if err := sonic.Unmarshal(body, &remoteApp); err != nil {
		return nil, errors.Wrap(err, "解析远程配置 JSON 失败")
	}
	return &remoteApp, nil
}

// writeAppConfig 写入业务配置到 app_config.yaml
func (m *ConfigManager) writeAppConfig(appConfig *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.appConfigPath), 0755); err != nil {
		return errors.Wrap(err, "创建 data 目录失败")
	}
	if err := SaveAppConfig(m.appConfigPath, appConfig); err != nil {
		return err
	}
	if m.watcher != nil {
		_ = m.watcher.Add(m.appConfigPath)
	}
	return nil
}

// reload 重新加载配置并通知监听者
func (m *ConfigManager) reload() error {
	cfg, err := Load(m.configPath)
	if err != nil {
		return errors.Wrap(err, "加载基础配置失败")
	}

	appCfg, err := LoadAppConfig(m.appConfigPath)
	if err != nil {
		log.Warnf("加载业务配置失败: %v，保持原有业务配置", err)
		m.mu.RLock()
		kept := m.config.AppConfig
		m.mu.RUnlock()
		appCfg = &kept
	}
	appCfg.Normalize()
	cfg.AppConfig = *appCfg

	m.mu.Lock()
	m.config = cfg
	listeners := append([]ReloadListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}
