package config

import (
	"reflect"
	"sort"
	"strings"

	logx "weblet/internal/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured attrs for logging (never includes secrets).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.HTTP, newCfg.HTTP) {
		changed = append(changed, "http")
		attrs = append(attrs,
			logx.String("http.addr", newCfg.HTTP.Addr),
			logx.String("http.public_dir", newCfg.HTTP.PublicDir),
			logx.Bool("http.spa_fallback", newCfg.HTTP.SPAFallback),
			logx.String("http.plugin_dir", newCfg.HTTP.PluginDir),
		)
	}

	if oldCfg.TaskPool != newCfg.TaskPool {
		changed = append(changed, "task_pool")
		attrs = append(attrs,
			logx.Int("task_pool.workers", newCfg.TaskPool.Workers),
			logx.Int("task_pool.queue_size", newCfg.TaskPool.QueueSize),
		)
	}

	if oldCfg.Scheduler.Enabled != newCfg.Scheduler.Enabled ||
		!reflect.DeepEqual(oldCfg.Scheduler.Jobs, newCfg.Scheduler.Jobs) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.Int("scheduler.job_count", len(newCfg.Scheduler.Jobs)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
