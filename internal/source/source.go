// Package source абстрагирует транспорт источников изображений.
// Индексация не знает деталей подключения, только список и чтение файлов
package source

import (
	"fmt"
	"time"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/storage"
)

// Entry представляет один элемент каталога источника
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Source предоставляет доступ к одному настроенному источнику
type Source interface {
	// Type возвращает тип источника
	Type() storage.SourceType

	// Root возвращает корневой путь источника
	Root() string

	// List возвращает элементы каталога по указанному пути
	List(path string) ([]Entry, error)

	// Read возвращает байты файла по указанному пути
	Read(path string) ([]byte, error)

	// Close освобождает соединения источника
	Close() error
}

// Build создает источники по конфигурации.
// Неизвестный тип источника — ошибка конфигурации
func Build(configs []config.SourceConfig) ([]Source, error) {
	sources := make([]Source, 0, len(configs))

	for _, cfg := range configs {
		var src Source
		var err error

		switch storage.SourceType(cfg.Type) {
		case storage.SourceLocal:
			src, err = NewLocal(cfg.Path)
		case storage.SourceSamba:
			src, err = NewSamba(cfg)
		case storage.SourceWebDAV:
			src, err = NewWebDAV(cfg)
		default:
			err = fmt.Errorf("unknown source type: %s", cfg.Type)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to build source %s: %w", cfg.Path, err)
		}
		sources = append(sources, src)
	}

	return sources, nil
}
