package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/scrapiee/scrapiee/internal/browser"
	"github.com/scrapiee/scrapiee/internal/cache"
	"github.com/scrapiee/scrapiee/internal/models"
)

// Scraper performs one scrape attempt end to end.
type Scraper interface {
	Scrape(ctx context.Context, req models.ScrapeRequest) *models.ScrapeResponse
}

// BrowserPool exposes the browser manager operations the API needs.
type BrowserPool interface {
	Status() browser.Status
	Restart() error
}

// ResponseCache stores successful responses keyed by request shape.
type ResponseCache interface {
	Get(key string) (*models.ScrapeResponse, bool)
	Set(key string, resp *models.ScrapeResponse)
}

// EventPublisher emits product events for downstream consumers.
type EventPublisher interface {
	PublishProductScraped(ctx context.Context, record *models.ProductRecord)
}

type Handlers struct {
	scraper        Scraper
	pool           BrowserPool
	cache          ResponseCache
	events         EventPublisher
	defaultTimeout time.Duration
	logger         *slog.Logger
	started        time.Time
}

func NewHandlers(scraper Scraper, pool BrowserPool, respCache ResponseCache, events EventPublisher, defaultTimeout time.Duration, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		scraper:        scraper,
		pool:           pool,
		cache:          respCache,
		events:         events,
		defaultTimeout: defaultTimeout,
		logger:         logger.With("component", "api"),
		started:        time.Now(),
	}
}

// ScrapeRequestDTO is the wire form of a scrape request. Timeout is in
// milliseconds to match client expectations.
type ScrapeRequestDTO struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout,omitempty"`
	WaitFor string `json:"wait_for,omitempty"`
}

// Scrape handles POST /api/scrape.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var dto ScrapeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.respondCode(w, http.StatusBadRequest, models.ErrCodeInvalidRequest, "invalid request body")
		return
	}

	req, err := h.buildRequest(r, dto)
	if err != nil {
		h.respondCode(w, http.StatusBadRequest, models.ErrCodeInvalidRequest, err.Error())
		return
	}

	key := cache.Key(req.URL, req.WaitFor)
	if h.cache != nil {
		if cached, hit := h.cache.Get(key); hit {
			h.logger.Debug("cache hit", "request_id", req.ID, "url", req.URL)
			resp := *cached
			resp.Metadata.Cached = true
			h.respondJSON(w, http.StatusOK, &resp)
			return
		}
	}

	resp := h.scraper.Scrape(r.Context(), req)

	// A page that navigated fine but yielded not a single product field is
	// a failed scrape, not an empty success.
	if resp.Success && (resp.Data == nil || resp.Data.IsEmpty()) {
		resp = &models.ScrapeResponse{
			Success: false,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeScrapingFailed,
				Message: models.ErrCodeScrapingFailed.Message(),
				Details: "no product data could be extracted from the page",
			},
			Metadata: resp.Metadata,
		}
	}

	if resp.Success {
		if h.cache != nil {
			h.cache.Set(key, resp)
		}
		if h.events != nil {
			h.events.PublishProductScraped(r.Context(), resp.Data)
		}
		h.respondJSON(w, http.StatusOK, resp)
		return
	}

	h.respondJSON(w, statusForCode(resp.Error.Code), resp)
}

// buildRequest validates the DTO and converts it to the internal form.
func (h *Handlers) buildRequest(r *http.Request, dto ScrapeRequestDTO) (models.ScrapeRequest, error) {
	if dto.URL == "" {
		return models.ScrapeRequest{}, errors.New("url is required")
	}

	timeout := h.defaultTimeout
	if dto.Timeout != 0 {
		timeout = time.Duration(dto.Timeout) * time.Millisecond
		if timeout < models.MinTimeout || timeout > models.MaxTimeout {
			return models.ScrapeRequest{}, errors.New("timeout must be between 1000 and 60000 milliseconds")
		}
	}

	waitFor := models.WaitNetworkIdle
	if dto.WaitFor != "" {
		waitFor = models.WaitStrategy(dto.WaitFor)
		if !waitFor.IsValid() {
			return models.ScrapeRequest{}, errors.New("wait_for must be one of networkidle, load, domcontentloaded")
		}
	}

	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.New().String()
	}

	return models.ScrapeRequest{
		ID:      id,
		URL:     dto.URL,
		Timeout: timeout,
		WaitFor: waitFor,
	}, nil
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := h.pool.Status()

	health := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"browser": map[string]interface{}{
			"alive":         status.Alive,
			"active_leases": status.ActiveLeases,
		},
	}

	code := http.StatusOK
	if !status.Alive {
		health["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	h.respondJSON(w, code, health)
}

// BrowserStatus handles GET /api/browser/status.
func (h *Handlers) BrowserStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.pool.Status())
}

// BrowserRestart handles POST /api/browser/restart.
func (h *Handlers) BrowserRestart(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Restart(); err != nil {
		h.logger.Error("browser restart failed", "error", err)
		h.respondCode(w, http.StatusInternalServerError, models.ErrCodeBrowserError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "browser restarted"})
}

// statusForCode maps the failure taxonomy onto HTTP status codes.
func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case models.ErrCodeDNSError, models.ErrCodeConnectionRefused:
		return http.StatusBadGateway
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeBrowserError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// respondCode writes a failure envelope for API-boundary errors.
func (h *Handlers) respondCode(w http.ResponseWriter, status int, code models.ErrorCode, details string) {
	h.respondJSON(w, status, &models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    code,
			Message: code.Message(),
			Details: details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().Unix()},
	})
}
