package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "itops-pump-diagnosis"

type Log = zap.SugaredLogger

type LogCfg struct {
	Filepath    string `yaml:"filepath"`    // 日志文件路径
	Level       string `yaml:"level"`       // 日志级别 debug info warn error
	MaxSize     int    `yaml:"max_size"`    // 单个日志文件最大空间(MB)
	MaxAge      int    `yaml:"max_age"`     // 日志保留天数
	MaxBackups  int    `yaml:"max_backups"` // 最多保留的备份数
	Compress    bool   `yaml:"compress"`    // 归档是否压缩
	Development bool   `yaml:"development"` // 开发模式，输出更详细的堆栈
}

var (
	defaultLogFilePath = "/opt/itops-pump-diagnosis/log/itops-pump-diagnosis.log"

	Logger *Log
)

func SetDefaultLog(logConf *LogCfg) {
	Logger = NewLogger(logConf)
}

// NewLogger 构造同时输出到控制台与滚动文件的 SugaredLogger。
func NewLogger(logConf *LogCfg) *Log {
	hook := &lumberjack.Logger{
		Filename:   logConf.Filepath,
		LocalTime:  true,
		MaxAge:     logConf.MaxAge,
		MaxBackups: logConf.MaxBackups,
		MaxSize:    logConf.MaxSize,
		Compress:   logConf.Compress,
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "linenum",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	atomicLevel, err := zap.ParseAtomicLevel(logConf.Level)
	if err != nil {
		// 级别非法时退回 info
		atomicLevel = zap.NewAtomicLevel()
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if logConf.Filepath != "" {
		sinks = append(sinks, zapcore.AddSync(hook))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(sinks...),
		atomicLevel,
	)

	opts := []zap.Option{
		zap.AddCaller(),
		// 跳过本包的封装函数，定位到真实调用方
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("serviceName", serviceName)),
	}
	if logConf.Development {
		opts = append(opts, zap.Development())
	}

	return zap.New(core, opts...).Sugar()
}

func init() {
	Logger = NewLogger(&LogCfg{
		Filepath:    defaultLogFilePath,
		Development: true,
		Level:       "info",
		MaxAge:      30,
		MaxBackups:  10,
		MaxSize:     100,
	})
}

func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	Logger.Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	Logger.Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	Logger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	Logger.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	Logger.Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	Logger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	Logger.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	Logger.Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	Logger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	Logger.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	Logger.Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...interface{}) {
	Logger.Fatalf(template, args...)
}

func Sync() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}
