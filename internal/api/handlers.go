package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/samqbush/dp-soda-sub005/internal/db"
	"github.com/samqbush/dp-soda-sub005/internal/types"
	"github.com/samqbush/dp-soda-sub005/internal/wind"
)

// PredictionProvider is the lifecycle surface the handlers consume.
// *prediction.Lifecycle satisfies it.
type PredictionProvider interface {
	Today(ctx context.Context) (types.Prediction, error)
	ForOffset(ctx context.Context, offset int) (types.Prediction, error)
	Phase() types.LifecyclePhase
}

// PredictionHistory reads persisted frozen predictions.
// *db.PredictionRepository satisfies it.
type PredictionHistory interface {
	GetByDate(ctx context.Context, date string) (types.Prediction, error)
	ListRecent(ctx context.Context, limit int) ([]types.Prediction, error)
}

// Verifier runs verification for a frozen prediction.
// *verification.Engine satisfies it.
type Verifier interface {
	Verify(ctx context.Context, p types.Prediction) (types.VerificationRecord, error)
}

// VerificationHistory reads persisted verification records.
// *db.VerificationRepository satisfies it.
type VerificationHistory interface {
	GetByDate(ctx context.Context, date string) (types.VerificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]types.VerificationRecord, error)
	Summary(ctx context.Context) (db.AccuracySummary, error)
}

// RefreshTrigger runs one refresh pipeline pass on demand.
// *scheduler.Refresher satisfies it.
type RefreshTrigger interface {
	RefreshNow(ctx context.Context)
}

// SnapshotReader exposes the installed forecast snapshot so the health
// endpoint can report data freshness. *aggregator.SnapshotHolder satisfies it.
type SnapshotReader interface {
	Current() *types.AggregateSnapshot
}

// Handlers maps HTTP requests onto the domain services.
type Handlers struct {
	predictions  PredictionProvider
	history      PredictionHistory
	verifier     Verifier
	verification VerificationHistory
	analyzer     *wind.Analyzer
	sensor       types.SensorSource
	refresh      RefreshTrigger
	snapshots    SnapshotReader
	criteria     types.AlarmCriteria
	clock        types.Clock
	validate     *validator.Validate
	logger       *slog.Logger
}

// HandlersConfig holds the construction parameters for Handlers.
type HandlersConfig struct {
	Predictions  PredictionProvider
	History      PredictionHistory
	Verifier     Verifier
	Verification VerificationHistory
	Analyzer     *wind.Analyzer
	Sensor       types.SensorSource
	Refresh      RefreshTrigger
	Snapshots    SnapshotReader
	// Criteria is the configured default used when an analyze request does
	// not carry its own.
	Criteria types.AlarmCriteria
	Clock    types.Clock
	Logger   *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(cfg HandlersConfig) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Handlers{
		predictions:  cfg.Predictions,
		history:      cfg.History,
		verifier:     cfg.Verifier,
		verification: cfg.Verification,
		analyzer:     cfg.Analyzer,
		sensor:       cfg.Sensor,
		refresh:      cfg.Refresh,
		snapshots:    cfg.Snapshots,
		criteria:     cfg.Criteria,
		clock:        clock,
		validate:     validator.New(),
		logger:       logger,
	}
}

// RegisterRoutes mounts the versioned API onto the router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/predictions", func(r chi.Router) {
			r.Get("/today", h.HandleToday)
			r.Get("/history", h.HandlePredictionHistory)
			r.Get("/{offset}", h.HandleOffset)
		})
		r.Route("/verifications", func(r chi.Router) {
			r.Get("/summary", h.HandleSummary)
			r.Get("/{date}", h.HandleGetVerification)
			r.Post("/{date}", h.HandleVerify)
		})
		r.Route("/wind", func(r chi.Router) {
			r.Get("/current", h.HandleCurrentWind)
			r.Post("/analyze", h.HandleAnalyzeWind)
		})
		r.Post("/refresh", h.HandleRefresh)
	})
}

// todayResponse augments the prediction with its lifecycle phase so clients
// can render live/frozen badges.
type todayResponse struct {
	Phase      types.LifecyclePhase `json:"phase"`
	Prediction types.Prediction     `json:"prediction"`
}

// HandleToday handles GET /v1/predictions/today.
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	p, err := h.predictions.Today(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: todayResponse{
		Phase:      h.predictions.Phase(),
		Prediction: p,
	}})
}

// HandleOffset handles GET /v1/predictions/{offset}.
func (h *Handlers) HandleOffset(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "offset")
	offset, err := strconv.Atoi(raw)
	if err != nil {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidOffset,
			"day offset must be an integer",
			err,
		))
		return
	}
	p, err := h.predictions.ForOffset(r.Context(), offset)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: p})
}

// HandlePredictionHistory handles GET /v1/predictions/history.
func (h *Handlers) HandlePredictionHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	list, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: list})
}

// HandleGetVerification handles GET /v1/verifications/{date}.
func (h *Handlers) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		Error(w, r, err)
		return
	}
	rec, err := h.verification.GetByDate(r.Context(), date)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: rec})
}

// HandleVerify handles POST /v1/verifications/{date}: look up the frozen
// prediction for the date and reconcile it against sensor ground truth.
func (h *Handlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		Error(w, r, err)
		return
	}
	p, err := h.history.GetByDate(r.Context(), date)
	if err != nil {
		Error(w, r, err)
		return
	}
	rec, err := h.verifier.Verify(r.Context(), p)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: rec})
}

// HandleSummary handles GET /v1/verifications/summary.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.verification.Summary(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: summary})
}

// HandleCurrentWind handles GET /v1/wind/current: analyze the latest sensor
// samples against the configured criteria.
func (h *Handlers) HandleCurrentWind(w http.ResponseWriter, r *http.Request) {
	samples, err := h.sensor.RecentSamples(r.Context(), 2*time.Hour)
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: h.analyzer.Analyze(samples, h.criteria)})
}

// analyzeRequest carries caller-supplied samples and optional criteria
// overrides for ad-hoc analysis.
type analyzeRequest struct {
	Samples  []types.WindSample   `json:"samples" validate:"required,min=1,dive"`
	Criteria *types.AlarmCriteria `json:"criteria"`
}

// HandleAnalyzeWind handles POST /v1/wind/analyze.
func (h *Handlers) HandleAnalyzeWind(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"samples are required",
			err,
		))
		return
	}

	criteria := h.criteria
	if req.Criteria != nil {
		criteria = *req.Criteria
		if criteria.MinAvgSpeedMph < 0 || criteria.DirectionConsistency < 0 || criteria.DirectionConsistency > 100 {
			Error(w, r, types.NewAppError(
				types.ErrCodeValidationCriteria,
				"criteria values out of range",
				nil,
			))
			return
		}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: h.analyzer.Analyze(req.Samples, criteria)})
}

// HandleRefresh handles POST /v1/refresh, a manual pipeline run.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.refresh.RefreshNow(r.Context())
	p, err := h.predictions.Today(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: todayResponse{
		Phase:      h.predictions.Phase(),
		Prediction: p,
	}})
}

// Snapshot age bounds for the health report. A snapshot older than one
// missed refresh is degraded; one older than the pressure factor can use is
// stale.
const (
	healthDegradedAfter = time.Hour
	healthStaleAfter    = 3 * time.Hour
)

// healthResponse reports process liveness plus forecast data freshness.
type healthResponse struct {
	Status      string            `json:"status"`
	Reliability types.Reliability `json:"reliability,omitempty"`
	Sources     []string          `json:"sources,omitempty"`
	FetchedAt   *time.Time        `json:"fetched_at,omitempty"`
	SnapshotAge string            `json:"snapshot_age,omitempty"`
}

// HandleHealth handles GET /healthz. It always returns 200 so orchestrators
// keep the process alive; the body distinguishes fresh, degraded, and stale
// forecast data.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "stale"}
	if h.snapshots != nil {
		if snap := h.snapshots.Current(); snap != nil {
			age := h.clock.Now().Sub(snap.FetchedAt)
			switch {
			case age <= healthDegradedAfter:
				resp.Status = "healthy"
			case age <= healthStaleAfter:
				resp.Status = "degraded"
			}
			resp.Reliability = snap.Reliability
			resp.Sources = snap.Sources
			resp.FetchedAt = &snap.FetchedAt
			resp.SnapshotAge = age.Round(time.Second).String()
		}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: resp})
}

func parseDate(raw string) (string, error) {
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			"date must be YYYY-MM-DD",
			err,
		)
	}
	return raw, nil
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
