package source

import (
	"fmt"

	"github.com/studio-b12/gowebdav"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/storage"
)

// WebDAV читает файлы с WebDAV сервера
type WebDAV struct {
	client *gowebdav.Client
	root   string
}

// NewWebDAV создает WebDAV источник и проверяет соединение.
// Недоступный сервер — ошибка конфигурации, падаем сразу
func NewWebDAV(cfg config.SourceConfig) (*WebDAV, error) {
	client := gowebdav.NewClient(cfg.Address, cfg.Username, cfg.Password)

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("webdav connection to %s failed: %w", cfg.Address, err)
	}

	root := cfg.Path
	if root == "" {
		root = "/"
	}

	return &WebDAV{client: client, root: root}, nil
}

func (w *WebDAV) Type() storage.SourceType {
	return storage.SourceWebDAV
}

func (w *WebDAV) Root() string {
	return w.root
}

func (w *WebDAV) List(path string) ([]Entry, error) {
	infos, err := w.client.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:    info.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (w *WebDAV) Read(path string) ([]byte, error) {
	return w.client.Read(path)
}

func (w *WebDAV) Close() error {
	return nil
}
