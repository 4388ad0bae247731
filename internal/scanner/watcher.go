package scanner

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/retroframe/retroframe/internal/config"
)

// Watcher наблюдает за локальными источниками и запрашивает
// переиндексацию при изменениях в файловой системе.
// Удаленные источники покрываются только расписанием
type Watcher struct {
	cfg     *config.Config
	scanner *Scanner
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}

	// Группировка событий: одна переиндексация на пачку изменений
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher создает новый наблюдатель
func NewWatcher(cfg *config.Config, scanner *Scanner) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		cfg:      cfg,
		scanner:  scanner,
		watcher:  fsWatcher,
		stopChan: make(chan struct{}),
	}, nil
}

// Start запускает наблюдение за всеми локальными корнями
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, src := range w.cfg.Sources {
		if src.Type != "local" {
			continue
		}
		if err := w.addRecursive(src.Path); err != nil {
			log.Printf("Watcher: error adding path %s: %v", src.Path, err)
		}
	}

	go w.eventLoop()

	log.Println("File watcher started")
	return nil
}

// Stop останавливает наблюдение
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.watcher.Close()
	log.Println("File watcher stopped")
}

// addRecursive добавляет директорию и все поддиректории
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Продолжаем при ошибках доступа
		}

		if info.IsDir() {
			// Скрытые директории не наблюдаем
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				log.Printf("Watcher: failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relevant := event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	if !relevant {
		return
	}

	// Новые директории подключаем к наблюдению
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Printf("Watcher: failed to add new directory %s: %v", event.Name, err)
			}
		}
	}

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(30*time.Second, w.requestRefresh)
	w.debounceMu.Unlock()
}

func (w *Watcher) requestRefresh() {
	log.Println("Watcher: filesystem changed, refreshing index")
	if err := w.scanner.Refresh(); err != nil {
		log.Printf("Watcher: refresh failed: %v", err)
	}
}
