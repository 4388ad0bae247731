package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/source"
	"github.com/retroframe/retroframe/internal/storage"
)

// buildTree создает дерево файлов для индексации:
//
//	root/
//	  IMG_20210704_a.jpg
//	  notes.txt
//	  sub/b.jpg
//	  private/.ignore
//	  private/secret.jpg
//	  @eaDir/thumb.jpg
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("IMG_20210704_a.jpg")
	write("notes.txt")
	write("sub/b.jpg")
	write("private/.ignore")
	write("private/secret.jpg")
	write("@eaDir/thumb.jpg")

	return root
}

func newTestScanner(t *testing.T, root string) *Scanner {
	t.Helper()

	cfg := &config.Config{}
	cfg.Scan.IgnoreMarker = ".ignore"
	cfg.Scan.IgnoreFolders = []string{"@eaDir"}
	cfg.Scan.Workers = 2

	src, err := source.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	return NewScanner(cfg, nil, []source.Source{src})
}

func TestDiscover(t *testing.T) {
	root := buildTree(t)
	s := newTestScanner(t, root)

	resources := s.Discover()

	names := map[string]bool{}
	for _, r := range resources {
		names[r.Name] = true
	}

	if len(resources) != 2 {
		t.Fatalf("найдено %d ресурсов (%v), ожидалось 2", len(resources), names)
	}
	if !names["IMG_20210704_a.jpg"] || !names["b.jpg"] {
		t.Errorf("неожиданный набор ресурсов: %v", names)
	}

	// Папка с маркером и исключенная папка не индексируются
	if names["secret.jpg"] {
		t.Error("ресурс из папки с маркером попал в индекс")
	}
	if names["thumb.jpg"] {
		t.Error("ресурс из исключенной папки попал в индекс")
	}
}

func TestDiscoverResolvesFilenameDate(t *testing.T) {
	root := buildTree(t)
	s := newTestScanner(t, root)

	resources := s.Discover()

	for _, r := range resources {
		if r.Name != "IMG_20210704_a.jpg" {
			continue
		}
		// Файл без EXIF, дата приходит из имени
		if r.Taken == nil || r.Taken.Format("2006-01-02") != "2021-07-04" {
			t.Errorf("Taken = %v, ожидалось 2021-07-04", r.Taken)
		}
		return
	}
	t.Fatal("ресурс IMG_20210704_a.jpg не найден")
}

// snapshotCatalog возвращает отсортированные ID и JSON-снимки всех записей
func snapshotCatalog(t *testing.T, store *storage.Store) ([]string, map[string]string) {
	t.Helper()

	ids, err := store.GetAllIDs()
	if err != nil {
		t.Fatalf("GetAllIDs: %v", err)
	}
	sort.Strings(ids)

	records := map[string]string{}
	for _, id := range ids {
		resource, err := store.GetByID(id)
		if err != nil || resource == nil {
			t.Fatalf("GetByID(%s): %v", id, err)
		}
		data, err := json.Marshal(resource)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		records[id] = string(data)
	}
	return ids, records
}

func TestRefreshIdempotent(t *testing.T) {
	root := buildTree(t)

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "resources.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Scan.IgnoreMarker = ".ignore"
	cfg.Scan.IgnoreFolders = []string{"@eaDir"}
	cfg.Scan.Workers = 2

	src, err := source.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	s := NewScanner(cfg, store, []source.Source{src})

	// Две переиндексации неизменного дерева дают одинаковый каталог
	if err := s.Refresh(); err != nil {
		t.Fatalf("первый Refresh: %v", err)
	}
	firstIDs, firstRecords := snapshotCatalog(t, store)

	if err := s.Refresh(); err != nil {
		t.Fatalf("второй Refresh: %v", err)
	}
	secondIDs, secondRecords := snapshotCatalog(t, store)

	if len(firstIDs) == 0 {
		t.Fatal("каталог пуст после индексации")
	}
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("наборы ID разного размера: %d и %d", len(firstIDs), len(secondIDs))
	}
	for i := range firstIDs {
		if firstIDs[i] != secondIDs[i] {
			t.Fatalf("наборы ID различаются: %v и %v", firstIDs, secondIDs)
		}
	}
	for id, record := range firstRecords {
		if secondRecords[id] != record {
			t.Errorf("запись %s изменилась:\n%s\n%s", id, record, secondRecords[id])
		}
	}
}

func TestDiscoverFillsResourceFields(t *testing.T) {
	root := buildTree(t)
	s := newTestScanner(t, root)

	resources := s.Discover()
	if len(resources) == 0 {
		t.Fatal("ресурсы не найдены")
	}

	for _, r := range resources {
		if r.ID == "" {
			t.Errorf("пустой ID у %s", r.Name)
		}
		if r.ContentType != "image/jpeg" {
			t.Errorf("ContentType = %q у %s", r.ContentType, r.Name)
		}
		if r.Source != "local" {
			t.Errorf("Source = %q у %s", r.Source, r.Name)
		}
		if r.ContentLength == 0 {
			t.Errorf("ContentLength = 0 у %s", r.Name)
		}
	}
}
