package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Префиксы ключей для разных типов данных
const (
	prefixResource = "resource:" // Запись ресурса (JSON)
	prefixHidden   = "hidden:"   // Скрытые ресурсы (множество)
	prefixGeo      = "geo:"      // Кэш геокодирования (координата -> город)
	prefixRender   = "render:"   // Кэш отрендеренных изображений
)

// Store обертка над BadgerDB, хранит ресурсы и все три кэша
type Store struct {
	db *badger.DB
}

// NewStore создает новое хранилище
func NewStore(dbPath string) (*Store, error) {
	// Создаем директорию для БД если не существует
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	// Переиндексация пишет весь каталог одной транзакцией, а лимит
	// размера транзакции у badger пропорционален memtable.
	// С значением по умолчанию большой каталог упирается в ErrTxnTooBig
	opts.MemTableSize = 256 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает хранилище
func (s *Store) Close() error {
	return s.db.Close()
}

// === Ресурсы ===

// ReplaceAll атомарно заменяет все записи ресурсов новым набором.
// Кэш рендеров сбрасывается в той же транзакции, так как ориентация
// или содержимое ресурса могли измениться. Кэш геокодирования не трогаем
func (s *Store) ReplaceAll(resources []*ImageResource) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, prefixResource); err != nil {
			return err
		}
		if err := deletePrefix(txn, prefixRender); err != nil {
			return err
		}

		for _, resource := range resources {
			data, err := json.Marshal(resource)
			if err != nil {
				return fmt.Errorf("failed to marshal resource %s: %w", resource.ID, err)
			}
			if err := txn.Set([]byte(prefixResource+resource.ID), data); err != nil {
				return fmt.Errorf("failed to store resource %s: %w", resource.ID, err)
			}
		}
		return nil
	})
}

// GetByID получает ресурс по ID, nil если не найден.
// Ошибка чтения одной записи тоже трактуется как отсутствие,
// вызывающие не различают эти случаи
func (s *Store) GetByID(id string) (*ImageResource, error) {
	var resource ImageResource
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixResource + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resource)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		log.Printf("Failed to read resource %s: %v", id, err)
		return nil, nil
	}
	return &resource, nil
}

// GetAllIDs возвращает ID всех ресурсов, включая скрытые
func (s *Store) GetAllIDs() ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixResource)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// ThisWeekIDs возвращает в случайном порядке ID всех видимых ресурсов,
// чья дата съемки попадает в окно +-3 дня вокруг сегодняшнего дня,
// независимо от года
func (s *Store) ThisWeekIDs() ([]string, error) {
	ids, err := s.thisWeekIDs(time.Now())
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids, nil
}

// ThisWeekCount возвращает количество видимых ресурсов в недельном окне
func (s *Store) ThisWeekCount() (int, error) {
	ids, err := s.thisWeekIDs(time.Now())
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Store) thisWeekIDs(today time.Time) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixResource)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])

			if hidden, err := isHidden(txn, id); err != nil {
				return err
			} else if hidden {
				continue
			}

			err := item.Value(func(val []byte) error {
				var resource ImageResource
				if err := json.Unmarshal(val, &resource); err != nil {
					return err
				}
				if resource.Taken != nil && inWeekWindow(today, *resource.Taken) {
					ids = append(ids, id)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return ids, err
}

// RandomVisibleIDs возвращает до limit видимых ресурсов в случайном порядке
func (s *Store) RandomVisibleIDs(limit int) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixResource)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			if hidden, err := isHidden(txn, id); err != nil {
				return err
			} else if hidden {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// === Скрытые ресурсы ===

// AddHidden помечает ресурс как скрытый. Повторное добавление не ошибка
func (s *Store) AddHidden(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixHidden+id), nil)
	})
}

// RemoveHidden убирает ресурс из скрытых. Удаление несуществующего не ошибка
func (s *Store) RemoveHidden(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixHidden + id))
	})
}

// GetAllHidden возвращает ID всех скрытых ресурсов
func (s *Store) GetAllHidden() ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixHidden)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

func isHidden(txn *badger.Txn, id string) (bool, error) {
	_, err := txn.Get([]byte(prefixHidden + id))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// === Кэш рендеров ===

// GetCachedRender возвращает байты отрендеренного изображения, nil если нет
func (s *Store) GetCachedRender(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixRender + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		// Ошибка чтения одного ключа трактуется как промах кэша
		return nil, nil
	}
	return data, nil
}

// PutCachedRender сохраняет байты отрендеренного изображения.
// Существующая запись перезаписывается
func (s *Store) PutCachedRender(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixRender+key), data)
	})
}

// ClearRenderCache полностью очищает кэш рендеров
func (s *Store) ClearRenderCache() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, prefixRender)
	})
}

// === Кэш геокодирования ===

// GetCachedLocationName возвращает название города для ключа координаты
func (s *Store) GetCachedLocationName(coordKey string) (string, bool) {
	var name string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGeo + coordKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return name, true
}

// PutCachedLocationName сохраняет название города для ключа координаты.
// Записи живут вечно и не сбрасываются при переиндексации
func (s *Store) PutCachedLocationName(coordKey, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixGeo+coordKey), []byte(name))
	})
}

// === Обслуживание ===

// Vacuum запускает сборку мусора value log после больших замен.
// Необязательно для корректности
func (s *Store) Vacuum() {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			return
		}
	}
}

// deletePrefix удаляет все ключи с указанным префиксом внутри транзакции
func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	keys := [][]byte{}
	prefixBytes := []byte(prefix)
	for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return nil
}
