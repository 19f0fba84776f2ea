package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/omeyang/picasso/pkg/config/xconf"
)

// Load 读取 path 指向的设置文件；文件不存在时先写入默认设置
//
// 文件中缺失的键取默认值，Internal 总是默认值。
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return Settings{}, err
		}
	}

	cfg, err := xconf.New(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load %s: %w", path, err)
	}
	return decode(cfg)
}

// Save 原子写入设置文件，缺失的父目录会被创建
func Save(path string, s Settings) error {
	if err := xconf.WriteFile(path, s); err != nil {
		return fmt.Errorf("settings: save %s: %w", path, err)
	}
	return nil
}

// Watch 监视设置文件，每次重载后回调最新设置
//
// current 是调用方已经通过 Load 得到的设置，作为第一份"上一次成功加载"的值。
// 重载或解析失败时 err 非 nil，s 为上一次成功加载的设置。
// 返回的 Watcher 需要调用 Run 开始监视。
func Watch(path string, current Settings, fn func(s Settings, err error)) (*xconf.Watcher, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, fmt.Errorf("settings: load %s: %w", path, err)
	}
	last := current

	var mu sync.Mutex
	return xconf.Watch(cfg, func(c xconf.Config, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			var s Settings
			if s, err = decode(c); err == nil {
				last = s
			}
		}
		fn(last, err)
	})
}

func decode(cfg xconf.Config) (Settings, error) {
	s := Default()
	if err := cfg.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("settings: decode %s: %w", cfg.Path(), err)
	}
	s.Internal = Default().Internal
	return s, nil
}
