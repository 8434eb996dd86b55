package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/pipesh/core/proc"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"
	EventLogName      = "events.log"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt      string `json:"prompt"`
	Color       string `json:"color" validate:"oneof=always auto never"`
	ReapPolicy  string `json:"reap_policy" validate:"oneof=auto wait"`
	HistoryFile string `json:"history_file"`
	EventLog    bool   `json:"event_log"`

	Limits shell.Limits `json:"limits"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Reap returns the configured reap policy.
func (c *Configuration) Reap() proc.ReapPolicy {
	return proc.ReapPolicy(c.ReapPolicy)
}

// Persistent is true if the configuration is backed by a directory, defaults
// have nowhere to write logs or history.
func (c *Configuration) Persistent() bool {
	return c.configFs != nil
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Path resolves a name relative to the configuration directory.
func (c *Configuration) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.dir, name)
}

// HistoryPath returns the absolute history file, or the empty string if
// history isn't kept.
func (c *Configuration) HistoryPath() string {
	if !c.Persistent() || c.HistoryFile == "" {
		return ""
	}
	return c.Path(c.HistoryFile)
}

// OpenAppLog opens the diagnostic log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(EventLogName, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration, which isn't backed by a
// directory.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
