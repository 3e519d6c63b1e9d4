package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the Loader.
const EnvPrefix = "VOLLEY"

// envKeys are the settings that may come from VOLLEY_* environment variables.
var envKeys = []string{
	"target", "method", "body", "body_file",
	"total", "concurrency", "timeout",
	"output", "html_output", "dashboard", "progress", "no_color",
	"log_errors", "log_level", "log_production",
	"thresholds", "metrics_addr",
	"tracing.endpoint", "tracing.protocol", "tracing.service_name",
	"tracing.sample_rate", "tracing.insecure", "tracing.propagate",
}

// Loader handles loading configuration from files, environment and
// command-line arguments. Precedence: flags, then env, then file, then
// defaults.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{lookupEnv: os.LookupEnv}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (l Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// Nothing to go on: show usage.
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" && !l.envSet(EnvPrefix+"_TARGET") {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	cfgViper.SetEnvPrefix(EnvPrefix)
	cfgViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range envKeys {
		if err := cfgViper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	if positional := flagSet.Args(); len(positional) > 0 {
		if len(positional) > 1 {
			return nil, fmt.Errorf("expected at most one target URL, got %d arguments", len(positional))
		}
		if flagSet.Changed("target") {
			return nil, errors.New("target given both as --target and as an argument")
		}
		cfg.TargetURL = strings.TrimSpace(positional[0])
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return &cfg, nil
}

func (l Loader) envSet(name string) bool {
	lookup := l.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	val, ok := lookup(name)
	return ok && strings.TrimSpace(val) != ""
}

// applyConfigSettings applies settings from a config file or the
// environment to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		if val != "" {
			cfg.Method = val
		}
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "body"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("body: %w", err)
		}
		cfg.Body = val
	}

	if raw, ok := lookupSetting(settings, "bodyfile", "body_file", "body-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("bodyFile: %w", err)
		}
		cfg.BodyFile = val
	}

	if raw, ok := lookupSetting(settings, "total", "requests"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		cfg.Total = val
	}

	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.Output = OutputFormat(val)
		}
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		if val {
			cfg.Output = OutputJSON
		}
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	boolSettings := []struct {
		dst  *bool
		keys []string
	}{
		{&cfg.Dashboard, []string{"dashboard"}},
		{&cfg.Progress, []string{"progress"}},
		{&cfg.NoColor, []string{"nocolor", "no_color", "no-color"}},
		{&cfg.LogErrors, []string{"logerrors", "log_errors", "log-errors"}},
		{&cfg.LogProduction, []string{"logproduction", "log_production", "log-production"}},
	}
	for _, bs := range boolSettings {
		raw, ok := lookupSetting(settings, bs.keys...)
		if !ok {
			continue
		}
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", bs.keys[0], err)
		}
		*bs.dst = val
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			cfg.LogLevel = val
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "metricsaddr", "metrics_addr", "metrics-addr"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("metricsAddr: %w", err)
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	if value == nil {
		return nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = val
	}
	return nil
}
