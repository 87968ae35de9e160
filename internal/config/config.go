package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/annel0/blockworld/internal/noise"
	"github.com/annel0/blockworld/internal/stream"
	"github.com/annel0/blockworld/internal/world"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath переменная окружения с путём к файлу конфигурации
const EnvConfigPath = "BLOCKWORLD_CONFIG"

// ErrInvalidSettings конфигурация содержит недопустимые значения
var ErrInvalidSettings = errors.New("invalid settings")

// Config корневая структура конфигурации.
// Не заданные в файле значения берутся из окружения, затем из значений по умолчанию.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Noise     NoiseConfig     `yaml:"noise"`
	Stream    StreamConfig    `yaml:"stream"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type WorldConfig struct {
	Seed       *int64 `yaml:"seed"`
	ChunkSize  int    `yaml:"chunk_size"`
	MaxHeight  int    `yaml:"max_height"`
	WaterLevel *int   `yaml:"water_level"`
}

type NoiseConfig struct {
	Frequency float64 `yaml:"frequency"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int     `yaml:"octaves"`
}

type StreamConfig struct {
	Radius       *int  `yaml:"radius"`
	PoolCapacity int   `yaml:"pool_capacity"`
	Workers      int   `yaml:"workers"`
	LoadOrigin   *bool `yaml:"load_origin"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	MetricsAddr string  `yaml:"metrics_addr"`
	Endpoint    string  `yaml:"otlp_endpoint"` // host:port коллектора OTLP HTTP
	Insecure    bool    `yaml:"otlp_insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // каталог файловых логов; пусто означает только консоль
}

// GetSeed возвращает сид мира
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != nil {
		return *w.Seed
	}
	if envVal := os.Getenv("BLOCKWORLD_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 1337
}

// GetChunkSize возвращает ширину чанка
func (w *WorldConfig) GetChunkSize() int {
	return getIntWithEnvFallback(w.ChunkSize, "BLOCKWORLD_CHUNK_SIZE", 16)
}

// GetMaxHeight возвращает высоту чанка
func (w *WorldConfig) GetMaxHeight() int {
	return getIntWithEnvFallback(w.MaxHeight, "BLOCKWORLD_MAX_HEIGHT", 128)
}

// GetWaterLevel возвращает базовый уровень поверхности. Ноль допустим, поэтому поле указатель.
func (w *WorldConfig) GetWaterLevel() int {
	if w.WaterLevel != nil {
		return *w.WaterLevel
	}
	return getIntWithEnvFallback(0, "BLOCKWORLD_WATER_LEVEL", 64)
}

// GetRadius возвращает радиус загрузки в чанках
func (s *StreamConfig) GetRadius() int {
	if s.Radius != nil {
		return *s.Radius
	}
	return getIntWithEnvFallback(0, "BLOCKWORLD_RADIUS", 2)
}

// GetPoolCapacity возвращает ёмкость пула чанков
func (s *StreamConfig) GetPoolCapacity() int {
	return getIntWithEnvFallback(s.PoolCapacity, "BLOCKWORLD_POOL_CAPACITY", 256)
}

// GetWorkers возвращает число фоновых воркеров
func (s *StreamConfig) GetWorkers() int {
	return getIntWithEnvFallback(s.Workers, "BLOCKWORLD_WORKERS", runtime.NumCPU())
}

// GetLoadOrigin сообщает, нужно ли загружать чанк (0,0) при старте
func (s *StreamConfig) GetLoadOrigin() bool {
	if s.LoadOrigin != nil {
		return *s.LoadOrigin
	}
	return true
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "BLOCKWORLD_SERVICE_NAME", "blockworld")
}

// GetMetricsAddr возвращает адрес /metrics; пустая строка отключает HTTP-эндпоинт
func (t *TelemetryConfig) GetMetricsAddr() string {
	return getStringWithEnvFallback(t.MetricsAddr, "BLOCKWORLD_METRICS_ADDR", "")
}

// GetEndpoint возвращает адрес коллектора OTLP; пусто означает настройки экспортера по умолчанию
func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "BLOCKWORLD_OTLP_ENDPOINT", "")
}

// GetLevel возвращает уровень логирования консоли
func (l *LogConfig) GetLevel() string {
	return getStringWithEnvFallback(l.Level, "BLOCKWORLD_LOG_LEVEL", "info")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v >= 0 {
			return v
		}
	}

	return defaultVal
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// WorldSettings параметры генератора ландшафта
func (c *Config) WorldSettings() world.Settings {
	s := world.DefaultSettings()
	s.ChunkSize = c.World.GetChunkSize()
	s.MaxHeight = c.World.GetMaxHeight()
	s.WaterLevel = c.World.GetWaterLevel()
	return s
}

// NoiseSettings параметры поля шума; нулевые значения заменяются значениями по умолчанию
func (c *Config) NoiseSettings() noise.Settings {
	s := noise.DefaultSettings(c.World.GetSeed())
	if c.Noise.Frequency > 0 {
		s.Frequency = c.Noise.Frequency
	}
	if c.Noise.Alpha > 0 {
		s.Alpha = c.Noise.Alpha
	}
	if c.Noise.Beta > 0 {
		s.Beta = c.Noise.Beta
	}
	if c.Noise.Octaves > 0 {
		s.Octaves = int32(c.Noise.Octaves)
	}
	return s
}

// StreamSettings параметры менеджера стриминга
func (c *Config) StreamSettings() stream.Settings {
	return stream.Settings{
		ChunkSize:  c.World.GetChunkSize(),
		Radius:     c.Stream.GetRadius(),
		Workers:    c.Stream.GetWorkers(),
		LoadOrigin: c.Stream.GetLoadOrigin(),
	}
}

// Validate проверяет итоговые значения. Возвращает предупреждения, которые не мешают запуску.
func (c *Config) Validate() (warnings []string, err error) {
	if err := c.WorldSettings().Validate(); err != nil {
		return nil, fmt.Errorf("%w: world: %v", ErrInvalidSettings, err)
	}
	if c.Stream.GetRadius() < 0 {
		return nil, fmt.Errorf("%w: stream radius %d", ErrInvalidSettings, c.Stream.GetRadius())
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return nil, fmt.Errorf("%w: telemetry sample ratio %v outside [0, 1]", ErrInvalidSettings, c.Telemetry.SampleRatio)
	}
	if c.Noise.Frequency < 0 || c.Noise.Alpha < 0 || c.Noise.Beta < 0 || c.Noise.Octaves < 0 {
		return nil, fmt.Errorf("%w: noise parameters must not be negative", ErrInvalidSettings)
	}

	r := c.Stream.GetRadius()
	desired := (2*r + 1) * (2*r + 1)
	if capacity := c.Stream.GetPoolCapacity(); capacity < desired {
		warnings = append(warnings, fmt.Sprintf("pool capacity %d is below the %d chunks of radius %d", capacity, desired, r))
	}
	return warnings, nil
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV BLOCKWORLD_CONFIG; если и он пуст, возвращает пустой Config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return &Config{}, nil // конфиг не задан, используются окружение и дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse разбирает YAML конфигурации
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	return &cfg, nil
}
