package weather

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/retroframe/retroframe/internal/cache"
	"github.com/retroframe/retroframe/internal/config"
)

const (
	openWeatherMapURL = "https://api.openweathermap.org/data/2.5/weather"

	cacheKeyCurrent       = "weather:current"
	cacheKeyHomeAssistant = "weather:homeassistant"
)

// Service отдает текущую погоду из OpenWeatherMap и данные сущности
// Home Assistant. Ответы внешних API кэшируются, чтобы слайдшоу
// не дергало их на каждый запрос фронтенда
type Service struct {
	cfg    *config.WeatherConfig
	client *http.Client
	cache  *cache.Cache
}

// NewService создает новый погодный сервис
func NewService(cfg *config.WeatherConfig) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  cache.New(10*time.Minute, 30*time.Minute),
	}
}

// Enabled сообщает, включен ли показ погоды в конфигурации
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.cfg.APIKey != ""
}

// HomeAssistantEnabled сообщает, настроена ли интеграция с Home Assistant
func (s *Service) HomeAssistantEnabled() bool {
	ha := s.cfg.HomeAssistant
	return ha.BaseURL != "" && ha.APIToken != "" && ha.EntityID != ""
}

// Unit возвращает настроенную систему единиц измерения
func (s *Service) Unit() string {
	return s.cfg.Unit
}

// CurrentWeather возвращает JSON текущей погоды для настроенной локации.
// false при выключенной интеграции или любой ошибке запроса
func (s *Service) CurrentWeather() ([]byte, bool) {
	if !s.Enabled() {
		return nil, false
	}

	if cached, found := s.cache.Get(cacheKeyCurrent); found {
		return cached.([]byte), true
	}

	query := url.Values{}
	query.Set("q", s.cfg.Location)
	query.Set("appid", s.cfg.APIKey)
	query.Set("units", s.cfg.Unit)
	query.Set("lang", s.cfg.Language)

	data, ok := s.fetch(openWeatherMapURL+"?"+query.Encode(), "")
	if !ok {
		return nil, false
	}

	s.cache.Set(cacheKeyCurrent, data)
	return data, true
}

// HomeAssistantData возвращает JSON состояния настроенной сущности
// Home Assistant. false при выключенной интеграции или ошибке
func (s *Service) HomeAssistantData() ([]byte, bool) {
	if !s.HomeAssistantEnabled() {
		return nil, false
	}

	if cached, found := s.cache.Get(cacheKeyHomeAssistant); found {
		return cached.([]byte), true
	}

	ha := s.cfg.HomeAssistant
	endpoint := fmt.Sprintf("%s/api/states/%s", ha.BaseURL, ha.EntityID)

	data, ok := s.fetch(endpoint, "Bearer "+ha.APIToken)
	if !ok {
		return nil, false
	}

	s.cache.Set(cacheKeyHomeAssistant, data)
	return data, true
}

// Stop останавливает фоновую очистку кэша
func (s *Service) Stop() {
	s.cache.Stop()
}

// fetch выполняет GET запрос и возвращает тело ответа.
// Ошибки внешних API логируются и превращаются в отсутствие данных
func (s *Service) fetch(endpoint, authorization string) ([]byte, bool) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Weather request failed: %v", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Weather request returned status %d", resp.StatusCode)
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Weather response read failed: %v", err)
		return nil, false
	}
	return data, true
}
