package storage

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "resources.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testResource(name string, taken *time.Time) *ImageResource {
	return &ImageResource{
		ID:          GenerateID(name),
		Path:        "/photos/" + name,
		ContentType: "image/jpeg",
		Name:        name,
		Taken:       taken,
		Source:      SourceLocal,
	}
}

func takenAt(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return &d
}

func TestReplaceAllAndGet(t *testing.T) {
	store := newTestStore(t)

	r1 := testResource("a.jpg", takenAt(2020, 6, 15))
	r2 := testResource("b.jpg", nil)

	if err := store.ReplaceAll([]*ImageResource{r1, r2}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	ids, err := store.GetAllIDs()
	if err != nil {
		t.Fatalf("GetAllIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("получено %d ресурсов, ожидалось 2", len(ids))
	}

	got, err := store.GetByID(r1.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Name != "a.jpg" {
		t.Errorf("GetByID вернул %v", got)
	}
	if got.Taken == nil || !got.Taken.Equal(*r1.Taken) {
		t.Errorf("Taken = %v, ожидалось %v", got.Taken, r1.Taken)
	}

	// Повторная замена убирает исчезнувшие ресурсы
	if err := store.ReplaceAll([]*ImageResource{r1}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	ids, _ = store.GetAllIDs()
	if len(ids) != 1 || ids[0] != r1.ID {
		t.Errorf("после замены ids = %v", ids)
	}

	if missing, _ := store.GetByID(r2.ID); missing != nil {
		t.Errorf("удаленный ресурс все еще доступен: %v", missing)
	}
}

func TestReplaceAllAtomicity(t *testing.T) {
	store := newTestStore(t)

	setA := []*ImageResource{testResource("a.jpg", nil), testResource("b.jpg", nil)}
	setB := []*ImageResource{testResource("c.jpg", nil), testResource("d.jpg", nil)}

	if err := store.ReplaceAll(setA); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// Писатель чередует два непустых набора, читатель не должен
	// увидеть каталог в промежуточном пустом состоянии
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			set := setA
			if i%2 == 0 {
				set = setB
			}
			if err := store.ReplaceAll(set); err != nil {
				t.Errorf("ReplaceAll: %v", err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}

		ids, err := store.GetAllIDs()
		if err != nil {
			t.Fatalf("GetAllIDs: %v", err)
		}
		if len(ids) == 0 {
			t.Fatal("читатель увидел пустой каталог между заменами")
		}
	}
}

func TestGetByIDMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetByID("does-not-exist")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("GetByID несуществующего = %v, ожидался nil", got)
	}
}

func TestThisWeekIDsYearBoundary(t *testing.T) {
	store := newTestStore(t)

	dec := testResource("dec.jpg", takenAt(2019, 12, 30))
	jan := testResource("jan.jpg", takenAt(2021, 1, 2))
	summer := testResource("summer.jpg", takenAt(2020, 7, 15))
	noDate := testResource("nodate.jpg", nil)

	if err := store.ReplaceAll([]*ImageResource{dec, jan, summer, noDate}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// Первое января захватывает фото по обе стороны нового года
	ids, err := store.thisWeekIDs(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("thisWeekIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, ожидались dec и jan", ids)
	}

	// Летом ни декабрьское, ни январское фото не попадают
	ids, err = store.thisWeekIDs(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("thisWeekIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("летом ids = %v, ожидался пустой список", ids)
	}
}

func TestHiddenExcludedFromWeek(t *testing.T) {
	store := newTestStore(t)

	r := testResource("pic.jpg", takenAt(2020, 6, 15))
	if err := store.ReplaceAll([]*ImageResource{r}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	if ids, _ := store.thisWeekIDs(today); len(ids) != 1 {
		t.Fatalf("до скрытия ids = %v", ids)
	}

	if err := store.AddHidden(r.ID); err != nil {
		t.Fatalf("AddHidden: %v", err)
	}
	// Повторное скрытие не ошибка
	if err := store.AddHidden(r.ID); err != nil {
		t.Fatalf("повторный AddHidden: %v", err)
	}

	if ids, _ := store.thisWeekIDs(today); len(ids) != 0 {
		t.Errorf("скрытый ресурс в выборке: %v", ids)
	}

	hidden, err := store.GetAllHidden()
	if err != nil {
		t.Fatalf("GetAllHidden: %v", err)
	}
	if len(hidden) != 1 || hidden[0] != r.ID {
		t.Errorf("hidden = %v", hidden)
	}

	// Но ресурс остается в общем списке
	if ids, _ := store.GetAllIDs(); len(ids) != 1 {
		t.Errorf("скрытый ресурс пропал из общего списка: %v", ids)
	}

	if err := store.RemoveHidden(r.ID); err != nil {
		t.Fatalf("RemoveHidden: %v", err)
	}
	// Удаление несуществующего тоже не ошибка
	if err := store.RemoveHidden("unknown"); err != nil {
		t.Fatalf("RemoveHidden unknown: %v", err)
	}

	if ids, _ := store.thisWeekIDs(today); len(ids) != 1 {
		t.Errorf("после снятия скрытия ids = %v", ids)
	}
}

func TestRandomVisibleIDsLimit(t *testing.T) {
	store := newTestStore(t)

	resources := []*ImageResource{}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"} {
		resources = append(resources, testResource(name, nil))
	}
	if err := store.ReplaceAll(resources); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	ids, err := store.RandomVisibleIDs(3)
	if err != nil {
		t.Fatalf("RandomVisibleIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("получено %d id, ожидалось 3", len(ids))
	}

	// Лимит больше количества отдает все
	ids, _ = store.RandomVisibleIDs(100)
	if len(ids) != 5 {
		t.Errorf("получено %d id, ожидалось 5", len(ids))
	}
}

func TestRenderCache(t *testing.T) {
	store := newTestStore(t)

	key := RenderKey("abc", 800, 600)
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02, 0x03}

	// Промах до записи
	if data, _ := store.GetCachedRender(key); data != nil {
		t.Errorf("ожидался промах кэша, получено %v", data)
	}

	if err := store.PutCachedRender(key, payload); err != nil {
		t.Fatalf("PutCachedRender: %v", err)
	}

	data, err := store.GetCachedRender(key)
	if err != nil {
		t.Fatalf("GetCachedRender: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("кэш вернул %v, ожидалось %v", data, payload)
	}
}

func TestReplaceAllClearsRenderCacheKeepsGeoCache(t *testing.T) {
	store := newTestStore(t)

	if err := store.PutCachedRender(RenderKey("abc", 100, 100), []byte{1, 2, 3}); err != nil {
		t.Fatalf("PutCachedRender: %v", err)
	}
	if err := store.PutCachedLocationName("[lat=48.1 lon=11.5]", "Munich"); err != nil {
		t.Fatalf("PutCachedLocationName: %v", err)
	}

	if err := store.ReplaceAll([]*ImageResource{testResource("a.jpg", nil)}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	// Рендеры сброшены, геокэш пережил переиндексацию
	if data, _ := store.GetCachedRender(RenderKey("abc", 100, 100)); data != nil {
		t.Errorf("кэш рендеров пережил переиндексацию: %v", data)
	}

	name, found := store.GetCachedLocationName("[lat=48.1 lon=11.5]")
	if !found || name != "Munich" {
		t.Errorf("геокэш = (%q, %v), ожидалось (Munich, true)", name, found)
	}
}

func TestGenerateIDStable(t *testing.T) {
	a := GenerateID("photo.jpg")
	b := GenerateID("photo.jpg")
	if a != b {
		t.Errorf("ID нестабилен: %s != %s", a, b)
	}
	if a == GenerateID("other.jpg") {
		t.Error("разные имена дали одинаковый ID")
	}
	if len(a) != 32 {
		t.Errorf("длина ID = %d, ожидалось 32", len(a))
	}
}

func TestRenderKeyFormat(t *testing.T) {
	if got := RenderKey("abc", 800, 600); got != "abc_800_600" {
		t.Errorf("RenderKey = %q", got)
	}
}
