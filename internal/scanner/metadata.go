package scanner

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/retroframe/retroframe/internal/geo"
	"github.com/retroframe/retroframe/internal/storage"
)

func init() {
	// Регистрируем парсеры maker notes для разных производителей
	exif.RegisterParsers(mknote.All...)
}

// HeaderFields содержит сырые значения тегов, извлеченные из заголовка файла.
// Пустая строка или ноль означают отсутствие тега
type HeaderFields struct {
	CaptureDates    []string // Даты съемки в порядке приоритета (primary, original, digitized)
	GPSDateStamp    string
	GPSLatitude     string
	GPSLatitudeRef  string
	GPSLongitude    string
	GPSLongitudeRef string
	Orientation     int
}

// ResolveMetadata извлекает метаданные из байтов файла и разрешает
// дату съемки, координаты и ориентацию. Нечитаемый или битый заголовок
// не ошибка: остается в силе только фоллбэк по имени файла
func ResolveMetadata(path string, data []byte) (*time.Time, *geo.Location, *storage.Orientation) {
	fields := extractHeaderFields(data)
	return Resolve(fields, path)
}

// Resolve разрешает метаданные из извлеченных полей заголовка.
// Цепочка для даты съемки: теги даты съемки -> GPS дата -> имя файла -> nil
func Resolve(fields *HeaderFields, path string) (*time.Time, *geo.Location, *storage.Orientation) {
	var taken *time.Time
	var location *geo.Location
	var orientation *storage.Orientation

	if fields != nil {
		taken = resolveTakenDate(fields, path)
		location = resolveLocation(fields)
		orientation = OrientationFromTag(fields.Orientation)
	}

	if taken == nil {
		taken = DateFromPath(path)
	}

	return taken, location, orientation
}

func resolveTakenDate(fields *HeaderFields, path string) *time.Time {
	// Первый существующий и парсящийся тег выигрывает
	for _, value := range fields.CaptureDates {
		if value == "" {
			continue
		}
		if date := parseTakenDate(value); date != nil {
			return date
		}
		log.Printf("Unparseable capture date %q in %s", value, path)
	}

	if fields.GPSDateStamp != "" {
		if date := parseGPSDate(fields.GPSDateStamp); date != nil {
			return date
		}
		log.Printf("Unparseable GPS date %q in %s", fields.GPSDateStamp, path)
	}

	return nil
}

func resolveLocation(fields *HeaderFields) *geo.Location {
	// Нужны оба тега, иначе координаты нет
	if fields.GPSLatitude == "" || fields.GPSLongitude == "" {
		return nil
	}

	location, ok := geo.FromDMS(
		fields.GPSLatitude,
		fields.GPSLongitude,
		fields.GPSLatitudeRef,
		fields.GPSLongitudeRef,
	)
	if !ok {
		return nil
	}
	return &location
}

// OrientationFromTag отображает значение EXIF тега Orientation (1-8)
// в поворот и вертикальное отражение. Прочие значения дают nil
func OrientationFromTag(tag int) *storage.Orientation {
	switch tag {
	case 1:
		return &storage.Orientation{Rotation: 0, MirrorVertically: false}
	case 2:
		return &storage.Orientation{Rotation: 0, MirrorVertically: true}
	case 3:
		return &storage.Orientation{Rotation: 180, MirrorVertically: false}
	case 4:
		return &storage.Orientation{Rotation: 180, MirrorVertically: true}
	case 5:
		return &storage.Orientation{Rotation: 90, MirrorVertically: true}
	case 6:
		return &storage.Orientation{Rotation: 90, MirrorVertically: false}
	case 7:
		return &storage.Orientation{Rotation: 270, MirrorVertically: true}
	case 8:
		return &storage.Orientation{Rotation: 270, MirrorVertically: false}
	default:
		return nil
	}
}

// extractHeaderFields читает EXIF из байтов файла.
// Возвращает nil если заголовок отсутствует или не читается
func extractHeaderFields(data []byte) *HeaderFields {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Не все файлы имеют EXIF, это нормально
		return nil
	}

	fields := &HeaderFields{
		CaptureDates: []string{
			tagString(x, exif.DateTime),
			tagString(x, exif.DateTimeOriginal),
			tagString(x, exif.DateTimeDigitized),
		},
		GPSDateStamp:    tagString(x, exif.GPSDateStamp),
		GPSLatitude:     tagRationals(x, exif.GPSLatitude),
		GPSLatitudeRef:  tagString(x, exif.GPSLatitudeRef),
		GPSLongitude:    tagRationals(x, exif.GPSLongitude),
		GPSLongitudeRef: tagString(x, exif.GPSLongitudeRef),
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if val, err := tag.Int(0); err == nil {
			fields.Orientation = val
		}
	}

	return fields
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	return tagToString(tag)
}

// tagRationals форматирует рациональный GPS тег в строку вида
// "50/1, 25/1, 2519/100", которую понимает geo.FromDMS
func tagRationals(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}

	parts := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		num, denom, err := tag.Rat2(i)
		if err != nil {
			return ""
		}
		parts = append(parts, fmt.Sprintf("%d/%d", num, denom))
	}
	return parts[0] + ", " + parts[1] + ", " + parts[2]
}

func tagToString(tag *tiff.Tag) string {
	if tag == nil {
		return ""
	}
	str, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return str
}
