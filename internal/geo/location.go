package geo

import (
	"fmt"
	"regexp"
	"strconv"
)

// Location представляет географическую точку в десятичных градусах
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Паттерны для двух встречающихся форматов GPS-координат в EXIF
var (
	// Формат 1: "7 deg 33 min 55.5155 sec" или "7 deg 33 min 55 sec"
	dmsPattern = regexp.MustCompile(`(?P<deg>\d+) deg (?P<min>\d+) min (?P<sec>\d+\.?\d*) sec`)

	// Формат 2: "50/1, 25/1, 2519/100" (рациональные числа)
	rationalPattern = regexp.MustCompile(`(?P<deg>\d+)/(?P<degFrac>\d+),\s*(?P<min>\d+)/(?P<minFrac>\d+),\s*(?P<sec>\d+)/(?P<secFrac>\d+)`)
)

// Key возвращает строковый ключ координаты для кэша геокодирования
func (l Location) Key() string {
	return fmt.Sprintf("[lat=%v lon=%v]", l.Latitude, l.Longitude)
}

// FromDMS строит Location из строковых GPS-тегов широты и долготы.
// Если хотя бы одна координата не парсится, возвращается (Location{}, false)
func FromDMS(latitude, longitude, latitudeRef, longitudeRef string) (Location, bool) {
	lat, okLat := dmsToDecimal(latitude, latitudeRef)
	lon, okLon := dmsToDecimal(longitude, longitudeRef)

	if !okLat || !okLon {
		return Location{}, false
	}

	return Location{Latitude: lat, Longitude: lon}, true
}

// dmsToDecimal конвертирует градусы/минуты/секунды в десятичные градусы.
// Ссылка на юг или запад инвертирует знак значения
func dmsToDecimal(dms, ref string) (float64, bool) {
	multiplier := 1.0
	if ref == "S" || ref == "W" {
		multiplier = -1.0
	}

	if caps := dmsPattern.FindStringSubmatch(dms); caps != nil {
		deg := parseFloat(caps[1])
		min := parseFloat(caps[2])
		sec := parseFloat(caps[3])
		return multiplier * (deg + min/60.0 + sec/3600.0), true
	}

	if caps := rationalPattern.FindStringSubmatch(dms); caps != nil {
		degFrac := parseFloat(caps[2])
		minFrac := parseFloat(caps[4])
		secFrac := parseFloat(caps[6])
		if degFrac == 0 || minFrac == 0 || secFrac == 0 {
			return 0, false
		}
		deg := parseFloat(caps[1]) / degFrac
		min := parseFloat(caps[3]) / minFrac
		sec := parseFloat(caps[5]) / secFrac
		return multiplier * (deg + min/60.0 + sec/3600.0), true
	}

	return 0, false
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
