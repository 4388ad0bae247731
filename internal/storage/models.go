package storage

import (
	"time"

	"github.com/retroframe/retroframe/internal/geo"
)

// SourceType определяет тип источника ресурса
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceSamba  SourceType = "samba"
	SourceWebDAV SourceType = "webdav"
)

// Orientation описывает ориентацию изображения в двух измерениях.
// Rotation: 0, 90, 180 или 270 градусов по часовой стрелке
type Orientation struct {
	Rotation         int  `json:"rotation"`
	MirrorVertically bool `json:"mirror_vertically"`
}

// ImageResource представляет один найденный файл изображения
type ImageResource struct {
	ID            string        `json:"id"`             // MD5 от имени файла
	Path          string        `json:"path"`           // Абсолютный путь внутри источника
	ContentType   string        `json:"content_type"`   // MIME тип по расширению
	Name          string        `json:"name"`           // Имя файла
	ContentLength int64         `json:"content_length"` // Размер в байтах
	LastModified  time.Time     `json:"last_modified"`  // Дата модификации файла
	Taken         *time.Time    `json:"taken"`          // Дата съемки (nil если не определена)
	Location      *geo.Location `json:"location"`       // GPS координаты (nil если нет тегов)
	Orientation   *Orientation  `json:"orientation"`    // Ориентация из EXIF (nil если нет тега)
	Source        SourceType    `json:"source"`         // Тип источника
	SourceIndex   int           `json:"source_index"`   // Индекс источника в конфигурации
}
