package geo

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const reverseGeocodeURL = "https://api.bigdatacloud.net/data/reverse-geocode"

// Resolver разрешает координаты в название города через BigDataCloud API
type Resolver struct {
	apiKey   string
	language string
	client   *http.Client
}

// NewResolver создает новый геокодер.
// Если apiKey пустой, все запросы возвращают "не найдено"
func NewResolver(apiKey, language string) *Resolver {
	return &Resolver{
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ResolveCityName возвращает название города для координаты.
// Любая ошибка (сеть, статус, парсинг) трактуется как отсутствие результата
func (r *Resolver) ResolveCityName(location Location) (string, bool) {
	if r.apiKey == "" {
		return "", false
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%v", location.Latitude))
	query.Set("longitude", fmt.Sprintf("%v", location.Longitude))
	query.Set("localityLanguage", r.language)
	query.Set("key", r.apiKey)

	resp, err := r.client.Get(reverseGeocodeURL + "?" + query.Encode())
	if err != nil {
		log.Printf("Reverse geocode request failed for %s: %v", location.Key(), err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Reverse geocode returned status %d for %s", resp.StatusCode, location.Key())
		return "", false
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false
	}

	// Сначала поле "city", затем "locality" как запасной вариант
	if city := stringField(payload, "city"); city != "" {
		return city, true
	}
	if locality := stringField(payload, "locality"); locality != "" {
		return locality, true
	}

	return "", false
}

func stringField(payload map[string]interface{}, field string) string {
	value, ok := payload[field].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
