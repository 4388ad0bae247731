package scanner

import (
	"strings"
	"time"
)

// Форматы дат съемки из EXIF. Теги отдаются как сырые строки,
// поэтому принимаем и форму спецификации, и нативную EXIF-форму с двоеточиями
var takenDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05",
}

var gpsDateLayouts = []string{
	"2006-01-02",
	"2006:01:02",
}

// Форматы дат в именах файлов, в порядке проверки
var pathDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"signal-2006-01-02-MST",
}

var pathTokenizer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ".", "_")

// parseTakenDate парсит значение тега даты съемки.
// Непарсящийся тег трактуется как отсутствующий
func parseTakenDate(value string) *time.Time {
	return parseFirstLayout(strings.TrimSpace(value), takenDateLayouts)
}

// parseGPSDate парсит тег GPSDateStamp, время нормализуется к 00:00:00
func parseGPSDate(value string) *time.Time {
	return parseFirstLayout(strings.TrimSpace(value), gpsDateLayouts)
}

// DateFromPath пытается получить дату из пути файла.
// Путь разбивается на токены, выигрывает первый слева токен,
// совпавший с любым из известных форматов
func DateFromPath(path string) *time.Time {
	tokens := strings.Split(pathTokenizer.Replace(path), "_")

	for _, token := range tokens {
		if token == "" {
			continue
		}
		if date := parseFirstLayout(token, pathDateLayouts); date != nil {
			return date
		}
	}
	return nil
}

func parseFirstLayout(value string, layouts []string) *time.Time {
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
			return &parsed
		}
	}
	return nil
}
