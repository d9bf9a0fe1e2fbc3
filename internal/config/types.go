package config

// Config is the top-level configuration snapshot for the weblet process.
//
// It is loaded from JSON or YAML (see yaml.go) and can be hot-reloaded via
// ConfigManager.Watch. Sections are independently optional so a minimal
// config only needs to set what it wants to change from defaults.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	HTTP      HTTPConfig      `json:"http"`
	TaskPool  TaskPoolConfig  `json:"task_pool"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HTTPConfig controls the raw-socket HTTP server (internal/httpd).
type HTTPConfig struct {
	Addr string `json:"addr"` // host:port, e.g. "0.0.0.0:8080"

	// PublicDir is the directory served for unmatched routes (static + SPA
	// fallback). Empty disables static serving.
	PublicDir string `json:"public_dir,omitempty"`

	// SPAFallback serves PublicDir's index file (see SPAIndex) instead of a
	// 404 when a request has no route or file match and no dot in its last
	// path segment, whatever its method.
	SPAFallback bool   `json:"spa_fallback,omitempty"`
	SPAIndex    string `json:"spa_index,omitempty"` // default "index.html"

	// PluginDir, if set, is scanned for Go plugin (.so) modules exporting
	// dynamic route handlers (see internal/httpd.DynamicRegistry).
	PluginDir string `json:"plugin_dir,omitempty"`

	// EnvFile is a dotenv-format file (internal/dotenv) loaded once at
	// startup and passed to every handler invocation as its configuration
	// snapshot.
	EnvFile string `json:"env_file,omitempty"`

	// ErrorPagesDir, if set, is checked for "<code>.html" files to use as
	// custom error pages before falling back to a synthesized body.
	ErrorPagesDir string `json:"error_pages_dir,omitempty"`

	// MaxHeaderBytes bounds the request header block (default 16384, the
	// original server's hard-coded cap).
	MaxHeaderBytes int `json:"max_header_bytes,omitempty"`

	// RateLimitRPS caps accepted connections per second (0 disables
	// limiting). RateLimitBurst sets the token bucket's burst size.
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty"`
	RateLimitBurst int     `json:"rate_limit_burst,omitempty"`
}

// TaskPoolConfig controls the fixed-size worker pool (internal/concurrent/taskpool)
// that runs both HTTP connection handling and cron job dispatch.
type TaskPoolConfig struct {
	// Workers is the number of pool goroutines. 0 means use runtime.NumCPU().
	Workers int `json:"workers,omitempty"`

	// QueueSize bounds the number of tasks that can be pending Submit before
	// it blocks. 0 makes every Submit a rendezvous with a free worker.
	QueueSize int `json:"queue_size,omitempty"`
}

// SchedulerConfig controls the cron scheduler (internal/cron/scheduler).
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Jobs is the initial job set loaded at startup. Additional jobs may be
	// registered programmatically via scheduler.Scheduler.Add.
	Jobs []CronJobConfig `json:"jobs,omitempty"`
}

type CronJobConfig struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Schedule    string `json:"schedule"` // 5-field cron expression
	Enabled     bool   `json:"enabled"`
	// Command is an opaque identifier resolved by the caller (e.g. a plugin
	// module name); weblet's scheduler only carries it through, it does not
	// interpret it.
	Command string `json:"command"`
}
