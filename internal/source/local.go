package source

import (
	"fmt"
	"os"

	"github.com/retroframe/retroframe/internal/storage"
)

// Local читает файлы с локальной файловой системы
type Local struct {
	root string
}

// NewLocal создает локальный источник.
// Корень должен существовать и быть директорией
func NewLocal(root string) (*Local, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source root %s is not accessible: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}
	return &Local{root: root}, nil
}

func (l *Local) Type() storage.SourceType {
	return storage.SourceLocal
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) List(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		info, err := dirEntry.Info()
		if err != nil {
			// Файл мог исчезнуть между ReadDir и Info, пропускаем
			continue
		}
		entries = append(entries, Entry{
			Name:    dirEntry.Name(),
			IsDir:   dirEntry.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (l *Local) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (l *Local) Close() error {
	return nil
}
