// CLI 配置加载。

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/btt-go/smartcache"
)

const (
	configFileName = "smartcache"
	configFileType = "yaml"
	envPrefix      = "SMARTCACHE"

	// 配置键；连接相关的键同时是全局 flag 名
	cfgKeyHost            = "host"
	cfgKeyPort            = "port"
	cfgKeyUser            = "user"
	cfgKeyPassword        = "password"
	cfgKeyApplication     = "application"
	cfgKeyLogLevel        = "log-level"
	cfgKeyTailBlock       = "tail-block"
	cfgKeySettleWindow    = "settle-window"
	cfgKeyStreamMaxLen    = "stream-max-len"
	cfgKeyRetryMaxElapsed = "retry-max-elapsed"
)

// settings 是一次调用解析后的配置。
type settings struct {
	Host            string
	Port            string
	User            string
	Password        string
	Application     string
	LogLevel        slog.Level
	TailBlock       time.Duration
	SettleWindow    time.Duration
	StreamMaxLen    int64
	RetryMaxElapsed time.Duration
}

// Addr 返回 Redis 地址 host:port。
func (s settings) Addr() string {
	return s.Host + ":" + s.Port
}

// setDefaults 为没有 flag 的键注册默认值。
func setDefaults(v *viper.Viper) {
	sync := smartcache.DefaultSyncOptions()
	v.SetDefault(cfgKeyTailBlock, sync.TailBlock)
	v.SetDefault(cfgKeySettleWindow, smartcache.DefaultSettleWindow)
	v.SetDefault(cfgKeyStreamMaxLen, smartcache.DefaultStreamMaxLen)
	v.SetDefault(cfgKeyRetryMaxElapsed, sync.RetryMaxElapsed)
}

// loadConfig 把 smartcache.yaml（显式路径、./ 或 ~/.smartcache/）与 SMARTCACHE_* 环境变量读入 v。
// 默认位置没有配置文件不算错误，显式指定的文件不存在则报错。
func loadConfig(v *viper.Viper, configFile string) error {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".smartcache"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// resolveSettings 把合并后的 viper 视图转换为 settings。
func resolveSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Host:            v.GetString(cfgKeyHost),
		Port:            v.GetString(cfgKeyPort),
		User:            v.GetString(cfgKeyUser),
		Password:        v.GetString(cfgKeyPassword),
		Application:     v.GetString(cfgKeyApplication),
		TailBlock:       v.GetDuration(cfgKeyTailBlock),
		SettleWindow:    v.GetDuration(cfgKeySettleWindow),
		StreamMaxLen:    v.GetInt64(cfgKeyStreamMaxLen),
		RetryMaxElapsed: v.GetDuration(cfgKeyRetryMaxElapsed),
	}
	if s.Application == "" {
		s.Application = smartcache.DefaultApplication
	}
	if err := s.LogLevel.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return settings{}, &smartcache.ValidationError{
			Field:  cfgKeyLogLevel,
			Value:  v.GetString(cfgKeyLogLevel),
			Reason: "valid levels are debug, info, warn and error",
		}
	}
	return s, nil
}

// newLogger 创建写到 stderr 的文本日志。
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
