package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize creates a configuration directory at path holding the default
// configuration, an existing config.yaml is kept.
func Initialize(path string, logger *log.Logger) (*Configuration, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	logger.Printf("Initializing configuration in %s\n", abs)
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, err
	}

	if err := initializeFs(afero.NewBasePathFs(afero.NewOsFs(), abs), logger); err != nil {
		return nil, err
	}

	return Load(abs)
}

func initializeFs(configFs afero.Fs, logger *log.Logger) error {
	_, err := configFs.Stat(ConfigurationName)
	switch {
	case err == nil:
		logger.Printf("- %s exists, skipping\n", ConfigurationName)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	logger.Printf("- Writing %s\n", ConfigurationName)
	return afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600)
}
