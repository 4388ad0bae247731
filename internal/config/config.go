package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Sources   []SourceConfig  `yaml:"sources"`
	Scan      ScanConfig      `yaml:"scan"`
	Slideshow SlideshowConfig `yaml:"slideshow"`
	Geo       GeoConfig       `yaml:"geo"`
	Weather   WeatherConfig   `yaml:"weather"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	DBPath     string `yaml:"db_path"`
	LogsPath   string `yaml:"logs_path"`
	StaticPath string `yaml:"static_path"`
}

// SourceConfig описывает один источник изображений.
// Поля address/share/username/password/domain нужны только удаленным типам
type SourceConfig struct {
	Type     string `yaml:"type"` // local, samba, webdav
	Path     string `yaml:"path"`
	Address  string `yaml:"address"`
	Share    string `yaml:"share"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
}

type ScanConfig struct {
	IgnoreFolders []string `yaml:"ignore_folders"` // Шаблоны имен папок, исключаемых целиком
	IgnoreMarker  string   `yaml:"ignore_marker"`  // Имя файла-маркера исключения папки
	Workers       int      `yaml:"workers"`        // Параллелизм разрешения метаданных
}

type SlideshowConfig struct {
	Interval        int    `yaml:"interval"`         // Секунд на один слайд
	RefreshInterval int    `yaml:"refresh_interval"` // Минут между обновлениями плейлиста
	DateFormat      string `yaml:"date_format"`      // Go-формат даты для подписей
	HideButton      bool   `yaml:"hide_button"`      // Показывать кнопку скрытия фото
	RandomSlideshow bool   `yaml:"random_slideshow"` // Случайные фото вместо недельной подборки
	PreloadImages   bool   `yaml:"preload_images"`   // Предзагрузка следующих слайдов фронтендом
}

type GeoConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type WeatherConfig struct {
	Enabled       bool                `yaml:"enabled"`
	APIKey        string              `yaml:"api_key"`
	Location      string              `yaml:"location"`
	Unit          string              `yaml:"unit"`
	Language      string              `yaml:"language"`
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
}

type HomeAssistantConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
	EntityID string `yaml:"entity_id"`
}

// Load читает конфигурацию из YAML-файла и валидирует её
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "./data/resources.db"
	}
	if c.Storage.LogsPath == "" {
		c.Storage.LogsPath = "./logs"
	}
	if c.Storage.StaticPath == "" {
		c.Storage.StaticPath = "./web-app"
	}
	if c.Scan.IgnoreMarker == "" {
		c.Scan.IgnoreMarker = ".ignore"
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = runtime.NumCPU()
	}
	if c.Slideshow.Interval == 0 {
		c.Slideshow.Interval = 30
	}
	if c.Slideshow.RefreshInterval == 0 {
		c.Slideshow.RefreshInterval = 180
	}
	if c.Slideshow.DateFormat == "" {
		c.Slideshow.DateFormat = "02.01.2006"
	}
	if c.Geo.Language == "" {
		c.Geo.Language = "en"
	}
	if c.Weather.Unit == "" {
		c.Weather.Unit = "metric"
	}
	if c.Weather.Language == "" {
		c.Weather.Language = "en"
	}
	if c.Weather.Location == "" {
		c.Weather.Location = "Berlin"
	}
}

// Validate проверяет конфигурацию при старте.
// Несуществующий локальный корень — фатальная ошибка конфигурации,
// а не проблема первой индексации
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}

	for _, src := range c.Sources {
		switch src.Type {
		case "local":
			info, err := os.Stat(src.Path)
			if err != nil {
				return fmt.Errorf("local source %s does not exist: %w", src.Path, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("local source %s is not a directory", src.Path)
			}
		case "samba":
			if src.Address == "" || src.Share == "" {
				return fmt.Errorf("samba source requires address and share")
			}
		case "webdav":
			if src.Address == "" {
				return fmt.Errorf("webdav source requires address")
			}
		default:
			return fmt.Errorf("unknown source type: %s", src.Type)
		}
	}

	return nil
}

// RandomRequestLimit возвращает бюджет случайных ресурсов на одно обновление:
// количество слайдов за интервал обновления плюс 10% запаса
func (c *Config) RandomRequestLimit() int {
	perMinute := 60 / c.Slideshow.Interval
	if perMinute < 1 {
		perMinute = 1
	}
	limit := perMinute * c.Slideshow.RefreshInterval
	return limit + limit/10
}
