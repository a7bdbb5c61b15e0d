package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/observability"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig                   `yaml:"world"`
	Edit      EditConfig                    `yaml:"edit"`
	Storage   StorageConfig                 `yaml:"storage"`
	Metrics   MetricsConfig                 `yaml:"metrics"`
	EventBus  EventBusConfig                `yaml:"eventbus"`
	Telemetry observability.TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig                 `yaml:"logging"`
}

type WorldConfig struct {
	MinY int   `yaml:"min_y"`
	MaxY int   `yaml:"max_y"`
	Seed int64 `yaml:"seed"`
	// BlocksFile - YAML с описанием типов блоков; пусто - встроенный набор.
	BlocksFile string `yaml:"blocks_file"`
	// Generate - генерировать рельеф для чанков, которых нет в хранилище.
	Generate bool `yaml:"generate"`
}

type EditConfig struct {
	// MaxDepth и MaxBranch: nil - без ограничения.
	MaxDepth         *int `yaml:"max_depth"`
	MaxBranch        *int `yaml:"max_branch"`
	MaxChangedBlocks int  `yaml:"max_changed_blocks"`
	Diagonal         bool `yaml:"diagonal"`
	Prefetch         bool `yaml:"prefetch"`
	PrefetchWorkers  int  `yaml:"prefetch_workers"`
	PrefetchQueue    int  `yaml:"prefetch_queue"`
}

type StorageConfig struct {
	// Path - каталог badger; пусто - хранилище в памяти.
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
	// Components - уровни отдельных компонентов, например visitor: debug.
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.World.MaxY == 0 && c.World.MinY == 0 {
		c.World.MaxY = 256
	}
	if c.Edit.PrefetchWorkers <= 0 {
		c.Edit.PrefetchWorkers = 4
	}
	if c.Edit.PrefetchQueue <= 0 {
		c.Edit.PrefetchQueue = 256
	}
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "VOXEDIT"
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = 24
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "voxedit"
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	bounds := c.World.HeightBounds()
	if bounds.MinY >= bounds.MaxY {
		return fmt.Errorf("world: min_y (%d) должен быть меньше max_y (%d)", bounds.MinY, bounds.MaxY)
	}
	if c.Edit.MaxDepth != nil && *c.Edit.MaxDepth < 0 {
		return fmt.Errorf("edit: max_depth не может быть отрицательным")
	}
	if c.Edit.MaxBranch != nil && *c.Edit.MaxBranch < 0 {
		return fmt.Errorf("edit: max_branch не может быть отрицательным")
	}
	if c.Edit.MaxChangedBlocks < 0 {
		return fmt.Errorf("edit: max_changed_blocks не может быть отрицательным")
	}
	return nil
}

// HeightBounds возвращает вертикальные границы мира с поддержкой переменных окружения
func (w *WorldConfig) HeightBounds() extent.HeightBounds {
	return extent.HeightBounds{
		MinY: getIntWithEnvFallback(w.MinY, "VOXEDIT_MIN_Y", 0),
		MaxY: getIntWithEnvFallback(w.MaxY, "VOXEDIT_MAX_Y", 256),
	}
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (m *MetricsConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(m.Port, "VOXEDIT_METRICS_PORT", 2112)
}

// GetStoragePath возвращает путь хранилища: config -> env VOXEDIT_STORAGE_PATH
func (s *StorageConfig) GetStoragePath() string {
	if s.Path != "" {
		return s.Path
	}
	return os.Getenv("VOXEDIT_STORAGE_PATH")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Ненулевое значение из конфига имеет приоритет
	if configValue != 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEDIT_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEDIT_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML и применяет значения по умолчанию
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
