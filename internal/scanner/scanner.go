package scanner

import (
	"fmt"
	"log"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/source"
	"github.com/retroframe/retroframe/internal/storage"
	"github.com/retroframe/retroframe/internal/worker"
)

// Scanner индексирует все настроенные источники изображений
type Scanner struct {
	cfg     *config.Config
	store   *storage.Store
	sources []source.Source

	mu       sync.Mutex
	scanning bool
}

// candidate связывает найденный ресурс с его источником
// до шага разрешения метаданных
type candidate struct {
	resource *storage.ImageResource
	src      source.Source
}

// NewScanner создает новый сканер
func NewScanner(cfg *config.Config, store *storage.Store, sources []source.Source) *Scanner {
	return &Scanner{
		cfg:     cfg,
		store:   store,
		sources: sources,
	}
}

// Refresh выполняет полную переиндексацию: находит все ресурсы,
// разрешает метаданные и атомарно заменяет содержимое каталога.
// Повторный вызов во время работающей индексации — ошибка
func (s *Scanner) Refresh() error {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return fmt.Errorf("scan already in progress")
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	start := time.Now()
	log.Println("Begin fetching resources")

	resources := s.Discover()
	log.Printf("Found %d resources", len(resources))

	if err := s.store.ReplaceAll(resources); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}

	s.store.Vacuum()
	log.Printf("Indexing done in %s", time.Since(start).Round(time.Second))
	return nil
}

// IsScanning возвращает true, если индексация в процессе
func (s *Scanner) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Discover обходит все источники и возвращает готовые записи ресурсов.
// Источники обходятся параллельно, разрешение метаданных распараллелено
// по всему списку кандидатов
func (s *Scanner) Discover() []*storage.ImageResource {
	var mu sync.Mutex
	var wg sync.WaitGroup
	candidates := []candidate{}

	for index, src := range s.sources {
		wg.Add(1)
		go func(index int, src source.Source) {
			defer wg.Done()
			found := s.walk(index, src, src.Root())
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
		}(index, src)
	}
	wg.Wait()

	s.resolveAll(candidates)

	resources := make([]*storage.ImageResource, 0, len(candidates))
	for _, c := range candidates {
		resources = append(resources, c.resource)
	}
	return resources
}

// walk рекурсивно обходит каталог источника.
// Ошибка одного файла или подкаталога логируется и не прерывает
// обход соседних элементов
func (s *Scanner) walk(index int, src source.Source, dir string) []candidate {
	entries, err := src.List(dir)
	if err != nil {
		log.Printf("Could not open folder %s: %v", dir, err)
		return nil
	}

	// Папка с файлом-маркером исключается целиком вместе с поддеревом
	for _, entry := range entries {
		if !entry.IsDir && entry.Name == s.cfg.Scan.IgnoreMarker {
			log.Printf("Skipping folder %s: contains %s", dir, entry.Name)
			return nil
		}
	}

	found := []candidate{}
	for _, entry := range entries {
		fullPath := path.Join(dir, entry.Name)

		if entry.IsDir {
			if s.isExcludedFolder(entry.Name) {
				log.Printf("Skipping excluded folder %s", fullPath)
				continue
			}
			found = append(found, s.walk(index, src, fullPath)...)
			continue
		}

		if resource := buildResource(index, src, fullPath, entry); resource != nil {
			found = append(found, candidate{resource: resource, src: src})
		}
	}
	return found
}

// isExcludedFolder проверяет имя папки против настроенных шаблонов
func (s *Scanner) isExcludedFolder(name string) bool {
	for _, pattern := range s.cfg.Scan.IgnoreFolders {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// buildResource строит базовую запись ресурса без метаданных.
// Файлы не-изображения пропускаются молча, неподдерживаемые
// подтипы изображений — с записью в лог
func buildResource(index int, src source.Source, fullPath string, entry source.Entry) *storage.ImageResource {
	mimeType := MimeTypeByName(entry.Name)
	if !IsImage(mimeType) {
		return nil
	}
	if !IsSupportedImage(mimeType) {
		log.Printf("%s | has unsupported image format: %s", fullPath, mimeType)
		return nil
	}

	return &storage.ImageResource{
		ID:            storage.GenerateID(entry.Name),
		Path:          fullPath,
		ContentType:   mimeType,
		Name:          entry.Name,
		ContentLength: entry.Size,
		LastModified:  entry.ModTime,
		Source:        src.Type(),
		SourceIndex:   index,
	}
}

// resolveAll разрешает метаданные всех кандидатов через пул воркеров.
// Каждое разрешение независимо и только читает общий список
func (s *Scanner) resolveAll(candidates []candidate) {
	pool := worker.NewPool(s.cfg.Scan.Workers)
	pool.Start()

	var wg sync.WaitGroup
	for _, c := range candidates {
		c := c
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			resolveCandidate(c)
		})
	}
	wg.Wait()
	pool.Stop()
}

// resolveCandidate читает байты файла и заполняет метаданные.
// Нечитаемый файл оставляет в силе только фоллбэк по имени
func resolveCandidate(c candidate) {
	data, err := c.src.Read(c.resource.Path)
	if err != nil {
		log.Printf("Could not read %s: %v", c.resource.Path, err)
	}

	if len(data) > 0 {
		head := data
		if len(head) > 512 {
			head = head[:512]
		}
		if !headerMatchesClaim(head, c.resource.ContentType) {
			log.Printf("%s | header does not match claimed type %s", c.resource.Path, c.resource.ContentType)
		}
	}

	taken, location, orientation := ResolveMetadata(c.resource.Path, data)
	c.resource.Taken = taken
	c.resource.Location = location
	c.resource.Orientation = orientation
}

// ReadResourceData возвращает сырые байты файла ресурса из его источника
func (s *Scanner) ReadResourceData(resource *storage.ImageResource) ([]byte, error) {
	if resource.SourceIndex < 0 || resource.SourceIndex >= len(s.sources) {
		return nil, fmt.Errorf("resource %s references unknown source %d", resource.ID, resource.SourceIndex)
	}
	return s.sources[resource.SourceIndex].Read(resource.Path)
}
