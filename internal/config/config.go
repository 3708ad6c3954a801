package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/artclub/hookrunner/internal/logger"
	"github.com/artclub/hookrunner/internal/model"
)

// Config holds all configuration for the launcher. Every value has a
// default registered via the `default` struct tag; the defaults reproduce
// the constants of the historical launch script (bind 0.0.0.0:8000,
// uvicorn with reload, Prodamus webhook app reference) so running with no
// configuration at all behaves exactly like the old script did.
type Config struct {
	// Workdir is the directory the webhook receiver runs in.
	Workdir string `mapstructure:"workdir" yaml:"workdir" default:"."`

	// Server holds the bind parameters passed to the server-runner.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Runner selects how the receiver is launched.
	Runner RunnerConfig `mapstructure:"runner" yaml:"runner"`

	// Watch configures launcher-level restart on source changes.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log" yaml:"log"`

	// Tunnel holds advisory values rendered into the instruction text.
	// The launcher never reads or validates these at runtime.
	Tunnel TunnelConfig `mapstructure:"tunnel" yaml:"tunnel"`
}

// ServerConfig holds the launch parameters handed to the server-runner.
type ServerConfig struct {
	// App is the application reference, e.g. an ASGI path.
	App string `mapstructure:"app" yaml:"app" default:"webhook.prodamus:app"`

	// Host is the bind address.
	Host string `mapstructure:"host" yaml:"host" default:"0.0.0.0"`

	// Port is the bind port.
	Port int `mapstructure:"port" yaml:"port" default:"8000"`

	// Reload enables the runner's reload-on-source-change flag.
	Reload bool `mapstructure:"reload" yaml:"reload" default:"true"`
}

// RunnerConfig selects and parameterizes the launch mechanism.
type RunnerConfig struct {
	// Mode is "process" (run the command on the host) or "container"
	// (run the image via the Docker daemon).
	Mode string `mapstructure:"mode" yaml:"mode" default:"process"`

	// Command is the server-runner binary for process mode.
	Command string `mapstructure:"command" yaml:"command" default:"uvicorn"`

	// Image is the container image for container mode.
	Image string `mapstructure:"image" yaml:"image" default:""`
}

// WatchConfig controls the launcher's own restart-on-change supervision.
// This is independent of Server.Reload, which belongs to the runner.
type WatchConfig struct {
	// Enabled turns the supervision loop on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" default:"false"`

	// Debounce is the window over which filesystem events are coalesced
	// into a single restart.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" default:"500ms"`
}

// MarshalYAML renders the debounce as a duration string ("500ms") rather
// than raw nanoseconds, so generated starter files stay readable and
// round-trip through the duration decode hook.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	}{Enabled: w.Enabled, Debounce: w.Debounce.String()}, nil
}

// TunnelConfig holds the values rendered into the printed setup
// instructions: which tunneling tool to suggest and which environment
// variable the downstream webhook application expects the public URL in.
type TunnelConfig struct {
	// Tool is the tunneling command suggested to the operator.
	Tool string `mapstructure:"tool" yaml:"tool" default:"ngrok"`

	// EnvVar is the environment variable the webhook application reads
	// the public callback URL from. Advisory text only.
	EnvVar string `mapstructure:"env_var" yaml:"env_var" default:"PRODAMUS_WEBHOOK_URL"`

	// Path is the webhook route appended to the public URL.
	Path string `mapstructure:"path" yaml:"path" default:"/webhook/prodamus"`
}

// Load builds the configuration from (in increasing precedence):
// struct-tag defaults, an optional config file, and environment
// variables. A .env file next to the invocation is overlaid onto the
// process environment first and replaces even already-exported
// variables, so a project-local .env reliably pins its values.
// Environment variables map onto nested keys with underscores,
// e.g. SERVER_PORT → server.port.
//
// The file parameter is optional (empty string skips it). YAML files are
// read by viper directly; .json/.jsonc files are stripped of comments and
// trailing commas first, so config files can carry inline documentation.
func Load(file string) (*Config, error) {
	// A .env file next to the invocation is overlaid into the process
	// environment. Missing files are fine (production, CI).
	_ = godotenv.Overload(".env")

	v := viper.New()

	// Register every key with its default so AutomaticEnv can see it.
	bindValues(v, Config{}, "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if err := readConfigFile(v, file); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to parse configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfigFile loads an explicit config file into viper, dispatching on
// the file extension.
func readConfigFile(v *viper.Viper, file string) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json", ".jsonc":
		data, err := os.ReadFile(file)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to read config file %q", file), err)
		}
		// jsonc.ToJSON rewrites comments and trailing commas to spaces,
		// yielding standard JSON that viper can parse.
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to parse config file %q", file), err)
		}
	default:
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to read config file %q", file), err)
		}
	}
	return nil
}

// Default returns the configuration produced when no file, .env overlay,
// or environment variable is present. These values reproduce the
// historical hard-coded launch constants.
func Default() *Config {
	return &Config{
		Workdir: ".",
		Server: ServerConfig{
			App:    "webhook.prodamus:app",
			Host:   "0.0.0.0",
			Port:   8000,
			Reload: true,
		},
		Runner: RunnerConfig{
			Mode:    "process",
			Command: "uvicorn",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
		},
		Tunnel: TunnelConfig{
			Tool:   "ngrok",
			EnvVar: "PRODAMUS_WEBHOOK_URL",
			Path:   "/webhook/prodamus",
		},
	}
}

// Validate checks the loaded configuration for values that can never
// produce a successful launch. Filesystem and daemon checks are not done
// here — those belong to launch time (runner) and preflight (check).
func (c *Config) Validate() error {
	if _, err := model.ParseRunnerMode(c.Runner.Mode); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid configuration: server port %d out of range (1-65535)", c.Server.Port))
	}
	if c.Server.Host == "" {
		return model.NewCLIError(model.ExitConfigError, "invalid configuration: server host must not be empty")
	}
	if c.Server.App == "" {
		return model.NewCLIError(model.ExitConfigError, "invalid configuration: server app must not be empty")
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return model.NewCLIError(model.ExitConfigError, "invalid configuration: watch debounce must be positive")
	}
	return nil
}

// LaunchSpec assembles the model.LaunchSpec the launch path consumes.
// Validate must have passed before calling this, so the mode parse
// cannot fail here.
func (c *Config) LaunchSpec() model.LaunchSpec {
	mode, _ := model.ParseRunnerMode(c.Runner.Mode)
	return model.LaunchSpec{
		App:     c.Server.App,
		Host:    c.Server.Host,
		Port:    c.Server.Port,
		Reload:  c.Server.Reload,
		Workdir: c.Workdir,
		Mode:    mode,
		Command: c.Runner.Command,
		Image:   c.Runner.Image,
	}
}

// bindValues uses reflection to walk the config struct and register each
// key's default value in viper, based on the `default` and `mapstructure`
// tags. Registering every key (even empty defaults) is what makes
// AutomaticEnv pick the key up during Unmarshal.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
