// Package config loads planr settings from planr.yaml, PLANR_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sadopc/planr/internal/task"
)

const (
	appName   = "planr"
	envPrefix = "PLANR"
)

type Config struct {
	// Root holds one subdirectory per project.
	Root   string
	DBPath string
	Logger LoggerConfig
	Gantt  GanttConfig
	// File is the config file that was read, or "".
	File string
}

type LoggerConfig struct {
	Level    string
	Encoding string
	File     string
}

type GanttConfig struct {
	Zoom        task.Zoom
	UnitWidth   int
	PaddingDays int
}

// Load reads configuration. An explicit file must exist; otherwise
// planr.yaml is looked up in the working directory and the user config
// directory, and a missing file means defaults.
func Load(file string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{File: v.ConfigFileUsed()}
	var err error
	if cfg.Root, err = expandHome(v.GetString("root")); err != nil {
		return nil, err
	}
	if cfg.DBPath, err = expandHome(v.GetString("db_path")); err != nil {
		return nil, err
	}
	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	if cfg.Logger.File, err = expandHome(v.GetString("logger.file")); err != nil {
		return nil, err
	}

	zoom, ok := task.ParseZoom(v.GetString("gantt.zoom"))
	if !ok {
		return nil, fmt.Errorf("invalid gantt.zoom %q (want week, month or quarter)", v.GetString("gantt.zoom"))
	}
	cfg.Gantt.Zoom = zoom
	cfg.Gantt.UnitWidth = v.GetInt("gantt.unit_width")
	if cfg.Gantt.UnitWidth <= 0 {
		return nil, fmt.Errorf("gantt.unit_width must be positive, got %d", cfg.Gantt.UnitWidth)
	}
	cfg.Gantt.PaddingDays = v.GetInt("gantt.padding_days")
	if cfg.Gantt.PaddingDays < 0 {
		return nil, fmt.Errorf("gantt.padding_days must not be negative, got %d", cfg.Gantt.PaddingDays)
	}

	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		return nil, fmt.Errorf("invalid logger.encoding %q (want console or json)", cfg.Logger.Encoding)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	configDir := filepath.Join(os.TempDir(), appName)
	if dir, err := os.UserConfigDir(); err == nil {
		configDir = filepath.Join(dir, appName)
	}
	v.SetDefault("root", "~/planner-data")
	v.SetDefault("db_path", filepath.Join(configDir, appName+".db"))
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.file", filepath.Join(configDir, appName+".log"))
	v.SetDefault("gantt.zoom", string(task.ZoomMonth))
	v.SetDefault("gantt.unit_width", 40)
	v.SetDefault("gantt.padding_days", 7)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
