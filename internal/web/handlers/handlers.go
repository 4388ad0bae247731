package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/geo"
	"github.com/retroframe/retroframe/internal/media"
	"github.com/retroframe/retroframe/internal/scanner"
	"github.com/retroframe/retroframe/internal/storage"
	"github.com/retroframe/retroframe/internal/weather"
)

// Версия приложения, отдается фронтенду для отображения
const appVersion = "1.0.0"

// Handlers содержит все HTTP-обработчики
type Handlers struct {
	cfg     *config.Config
	store   *storage.Store
	scanner *scanner.Scanner
	weather *weather.Service
	geo     *geo.Resolver
}

// NewHandlers создает новый экземпляр обработчиков
func NewHandlers(
	cfg *config.Config,
	store *storage.Store,
	scanner *scanner.Scanner,
	weatherService *weather.Service,
	geoResolver *geo.Resolver,
) *Handlers {
	return &Handlers{
		cfg:     cfg,
		store:   store,
		scanner: scanner,
		weather: weatherService,
		geo:     geoResolver,
	}
}

// === Ресурсы ===

// ListAllResources отдает ID всех ресурсов, включая скрытые
func (h *Handlers) ListAllResources(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.GetAllIDs()
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, ids)
}

// ListThisWeekResources отдает ID видимых ресурсов недельного окна
// в случайном порядке
func (h *Handlers) ListThisWeekResources(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ThisWeekIDs()
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, ids)
}

// ThisWeekResourcesCount отдает количество ресурсов недельного окна
func (h *Handlers) ThisWeekResourcesCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.ThisWeekCount()
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writePlain(w, strconv.Itoa(count))
}

// ThisWeekResourcesMetadata отдает полные записи ресурсов недельного окна
func (h *Handlers) ThisWeekResourcesMetadata(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ThisWeekIDs()
	if err != nil {
		h.serverError(w, err)
		return
	}

	resources := make([]*storage.ImageResource, 0, len(ids))
	for _, id := range ids {
		resource, err := h.store.GetByID(id)
		if err != nil {
			h.serverError(w, err)
			return
		}
		if resource != nil {
			resources = append(resources, resource)
		}
	}
	h.writeJSON(w, resources)
}

// ThisWeekResourceImage отдает случайное фото недельного окна
// в исходном размере. 404 если окно пустое
func (h *Handlers) ThisWeekResourceImage(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ThisWeekIDs()
	if err != nil {
		h.serverError(w, err)
		return
	}
	if len(ids) == 0 {
		http.NotFound(w, r)
		return
	}

	// Список уже перемешан хранилищем, берем первый
	resource, err := h.store.GetByID(ids[0])
	if err != nil || resource == nil {
		h.serverError(w, fmt.Errorf("week resource %s disappeared", ids[0]))
		return
	}

	rendered, err := h.renderResource(resource, 0, 0)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writePNG(w, rendered)
}

// ListRandomResources отдает случайные видимые ресурсы в пределах
// бюджета одного цикла обновления слайдшоу
func (h *Handlers) ListRandomResources(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.RandomVisibleIDs(h.cfg.RandomRequestLimit())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, ids)
}

// ResourceImage отдает отрендеренный PNG под запрошенное разрешение.
// Готовые рендеры берутся из кэша, новые сохраняются в него
func (h *Handlers) ResourceImage(w http.ResponseWriter, r *http.Request) {
	resource, width, height, ok := h.renderParams(w, r)
	if !ok {
		return
	}

	rendered, err := h.renderResource(resource, width, height)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writePNG(w, rendered)
}

// ResourceImageBase64 отдает тот же рендер строкой data-URI,
// для клиентов без возможности бинарной загрузки
func (h *Handlers) ResourceImageBase64(w http.ResponseWriter, r *http.Request) {
	resource, width, height, ok := h.renderParams(w, r)
	if !ok {
		return
	}

	rendered, err := h.renderResource(resource, width, height)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.writePlain(w, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(rendered))
}

// renderParams разбирает параметры рендера и находит ресурс.
// При любой проблеме ответ уже записан, вызывающий просто выходит
func (h *Handlers) renderParams(w http.ResponseWriter, r *http.Request) (*storage.ImageResource, int, int, bool) {
	width, err := strconv.Atoi(chi.URLParam(r, "width"))
	if err != nil || width < 0 {
		http.Error(w, "invalid width", http.StatusBadRequest)
		return nil, 0, 0, false
	}
	height, err := strconv.Atoi(chi.URLParam(r, "height"))
	if err != nil || height < 0 {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return nil, 0, 0, false
	}

	resource, err := h.store.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return nil, 0, 0, false
	}
	if resource == nil {
		http.NotFound(w, r)
		return nil, 0, 0, false
	}

	return resource, width, height, true
}

// renderResource возвращает PNG рендер ресурса, через кэш
func (h *Handlers) renderResource(resource *storage.ImageResource, width, height int) ([]byte, error) {
	renderKey := storage.RenderKey(resource.ID, width, height)
	if cached, err := h.store.GetCachedRender(renderKey); err == nil && cached != nil {
		return cached, nil
	}

	data, err := h.scanner.ReadResourceData(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", resource.ID, err)
	}

	rendered, err := media.Adjust(resource.Path, data, width, height, resource.Orientation)
	if err != nil {
		return nil, err
	}

	if err := h.store.PutCachedRender(renderKey, rendered); err != nil {
		log.Printf("Failed to cache render %s: %v", renderKey, err)
	}
	return rendered, nil
}

// ResourceMetadata отдает полную запись ресурса
func (h *Handlers) ResourceMetadata(w http.ResponseWriter, r *http.Request) {
	resource, err := h.store.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if resource == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, resource)
}

// ResourceDescription отдает подпись для слайда:
// дата съемки в настроенном формате и, если известен, город
func (h *Handlers) ResourceDescription(w http.ResponseWriter, r *http.Request) {
	resource, err := h.store.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if resource == nil {
		http.NotFound(w, r)
		return
	}

	var parts []string
	if resource.Taken != nil {
		parts = append(parts, resource.Taken.Format(h.cfg.Slideshow.DateFormat))
	}
	if city, ok := h.cityName(resource); ok {
		parts = append(parts, city)
	}

	h.writePlain(w, strings.TrimSpace(strings.Join(parts, ", ")))
}

// cityName возвращает название города ресурса.
// Сначала кэш геокодирования, затем внешний сервис с записью в кэш
func (h *Handlers) cityName(resource *storage.ImageResource) (string, bool) {
	if resource.Location == nil {
		return "", false
	}

	coordKey := resource.Location.Key()
	if name, found := h.store.GetCachedLocationName(coordKey); found {
		return name, true
	}

	name, ok := h.geo.ResolveCityName(*resource.Location)
	if !ok {
		return "", false
	}

	if err := h.store.PutCachedLocationName(coordKey, name); err != nil {
		log.Printf("Failed to cache location name for %s: %v", coordKey, err)
	}
	return name, true
}

// === Скрытые ресурсы ===

// ListHiddenResources отдает ID всех скрытых ресурсов
func (h *Handlers) ListHiddenResources(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.GetAllHidden()
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, ids)
}

// HideResource помечает ресурс скрытым. Повторное скрытие не ошибка
func (h *Handlers) HideResource(w http.ResponseWriter, r *http.Request) {
	if err := h.store.AddHidden(chi.URLParam(r, "id")); err != nil {
		h.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UnhideResource убирает ресурс из скрытых
func (h *Handlers) UnhideResource(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveHidden(chi.URLParam(r, "id")); err != nil {
		h.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// === Конфигурация для фронтенда ===

// SlideshowInterval отдает интервал показа слайда в секундах
func (h *Handlers) SlideshowInterval(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.Itoa(h.cfg.Slideshow.Interval))
}

// RefreshInterval отдает интервал обновления плейлиста в минутах
func (h *Handlers) RefreshInterval(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.Itoa(h.cfg.Slideshow.RefreshInterval))
}

// HideButtonEnabled отдает флаг показа кнопки скрытия
func (h *Handlers) HideButtonEnabled(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.FormatBool(h.cfg.Slideshow.HideButton))
}

// RandomSlideshowEnabled отдает флаг случайного слайдшоу
func (h *Handlers) RandomSlideshowEnabled(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.FormatBool(h.cfg.Slideshow.RandomSlideshow))
}

// PreloadImagesEnabled отдает флаг предзагрузки изображений
func (h *Handlers) PreloadImagesEnabled(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.FormatBool(h.cfg.Slideshow.PreloadImages))
}

// === Погода ===

// CurrentWeather отдает JSON текущей погоды, 404 если интеграция выключена
func (h *Handlers) CurrentWeather(w http.ResponseWriter, r *http.Request) {
	data, ok := h.weather.CurrentWeather()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// WeatherEnabled отдает флаг включенной погодной интеграции
func (h *Handlers) WeatherEnabled(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.FormatBool(h.weather.Enabled()))
}

// WeatherUnit отдает настроенную систему единиц
func (h *Handlers) WeatherUnit(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, h.weather.Unit())
}

// HomeAssistantData отдает состояние сущности Home Assistant
func (h *Handlers) HomeAssistantData(w http.ResponseWriter, r *http.Request) {
	data, ok := h.weather.HomeAssistantData()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// HomeAssistantEnabled отдает флаг интеграции с Home Assistant
func (h *Handlers) HomeAssistantEnabled(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, strconv.FormatBool(h.weather.HomeAssistantEnabled()))
}

// === Служебные ===

// Health подтверждает, что сервис жив
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Version отдает версию приложения
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writePlain(w, appVersion)
}

// === Вспомогательные ===

func (h *Handlers) writeJSON(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (h *Handlers) writePlain(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(body))
}

func (h *Handlers) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// serverError логирует ошибку и отвечает 500 без деталей
func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	log.Printf("Request failed: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
