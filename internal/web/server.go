package web

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/geo"
	"github.com/retroframe/retroframe/internal/scanner"
	"github.com/retroframe/retroframe/internal/storage"
	"github.com/retroframe/retroframe/internal/weather"
	"github.com/retroframe/retroframe/internal/web/handlers"
)

// Server представляет веб-сервер приложения
type Server struct {
	cfg     *config.Config
	store   *storage.Store
	scanner *scanner.Scanner
	weather *weather.Service
	geo     *geo.Resolver
	router  *chi.Mux
}

// NewServer создает новый веб-сервер
func NewServer(
	cfg *config.Config,
	store *storage.Store,
	scanner *scanner.Scanner,
	weatherService *weather.Service,
	geoResolver *geo.Resolver,
) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		scanner: scanner,
		weather: weatherService,
		geo:     geoResolver,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(60 * time.Second))

	h := handlers.NewHandlers(s.cfg, s.store, s.scanner, s.weather, s.geo)

	// API ресурсов
	r.Get("/api/resources", h.ListAllResources)
	r.Get("/api/resources/week", h.ListThisWeekResources)
	r.Get("/api/resources/week/count", h.ThisWeekResourcesCount)
	r.Get("/api/resources/week/metadata", h.ThisWeekResourcesMetadata)
	r.Get("/api/resources/week/image", h.ThisWeekResourceImage)
	r.Get("/api/resources/random", h.ListRandomResources)
	r.Get("/api/resources/hidden", h.ListHiddenResources)
	r.Post("/api/resources/hidden/{id}", h.HideResource)
	r.Delete("/api/resources/hidden/{id}", h.UnhideResource)
	r.Get("/api/resources/{id}/metadata", h.ResourceMetadata)
	r.Get("/api/resources/{id}/description", h.ResourceDescription)
	r.Get("/api/resources/{id}/{width}/{height}", h.ResourceImage)
	r.Get("/api/resources/{id}/{width}/{height}/base64", h.ResourceImageBase64)

	// API конфигурации для фронтенда
	r.Get("/api/config/interval", h.SlideshowInterval)
	r.Get("/api/config/refresh", h.RefreshInterval)
	r.Get("/api/config/hide-button", h.HideButtonEnabled)
	r.Get("/api/config/random-slideshow", h.RandomSlideshowEnabled)
	r.Get("/api/config/preload-images", h.PreloadImagesEnabled)

	// API погоды
	r.Get("/api/weather", h.CurrentWeather)
	r.Get("/api/weather/enabled", h.WeatherEnabled)
	r.Get("/api/weather/unit", h.WeatherUnit)
	r.Get("/api/weather/homeassistant", h.HomeAssistantData)
	r.Get("/api/weather/homeassistant/enabled", h.HomeAssistantEnabled)

	// Служебные
	r.Get("/api/health", h.Health)
	r.Get("/api/version", h.Version)

	// Статический веб-клиент
	staticHandler := http.FileServer(http.Dir(s.cfg.Storage.StaticPath))
	r.Handle("/*", staticHandler)

	s.router = r
}

// ServeHTTP позволяет использовать сервер как http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start запускает веб-сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	log.Printf("Starting server on http://%s", addr)
	return http.ListenAndServe(addr, s.router)
}
