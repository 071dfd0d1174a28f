// Package service provides the engine that wires the calibration,
// planning, and prediction stages together behind one API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattsre/peakform/internal/adapters/cache"
	"github.com/mattsre/peakform/internal/adapters/jobs"
	"github.com/mattsre/peakform/internal/config"
	"github.com/mattsre/peakform/internal/domain/calibration"
	"github.com/mattsre/peakform/internal/domain/impulse"
	"github.com/mattsre/peakform/internal/domain/loadplan"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/racepred"
	"github.com/mattsre/peakform/internal/domain/taper"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/pkg/logger"
)

// Default engine configuration constants.
const (
	defaultCacheSize  = 4096
	defaultCacheTTL   = 6 * time.Hour
	defaultQueueSize  = 1024
	resultsBufferSize = 256
	daysPerWeek       = 7
)

// ForecastRequest bundles everything needed for an end-to-end forecast.
type ForecastRequest struct {
	AthleteID         string                    `json:"athlete_id"`
	History           []model.TrainingDay       `json:"history"`
	Markers           []model.PerformanceMarker `json:"markers"`
	RaceDate          time.Time                 `json:"race_date"`
	WeeksAvailable    int                       `json:"weeks_available"`
	CurrentWeeklyLoad float64                   `json:"current_weekly_load"`
	LoadCeiling       float64                   `json:"load_ceiling"`
	DistanceMeters    float64                   `json:"distance_meters"`
	EfficiencyTrend   float64                   `json:"efficiency_trend"`
}

// Forecast is the combined output of an end-to-end run.
type Forecast struct {
	Params     model.ModelParameters `json:"model_parameters"`
	Trajectory model.LoadTrajectory  `json:"trajectory"`
	Prediction model.RacePrediction  `json:"prediction"`
}

// TrendPoint is one day of the fitness, fatigue, and form series.
type TrendPoint struct {
	Date    time.Time `json:"date"`
	Fitness float64   `json:"fitness"`
	Fatigue float64   `json:"fatigue"`
	Form    float64   `json:"form"`
}

// Stats reports engine runtime counters.
type Stats struct {
	Started      bool `json:"started"`
	CacheEntries int  `json:"cache_entries"`
	QueuedJobs   int  `json:"queued_jobs"`
	Workers      int  `json:"workers"`
}

// Engine implements the forecasting API over the domain stages.
type Engine struct {
	mu sync.RWMutex

	// Domain stages
	calibrator *calibration.Calibrator
	planner    *loadplan.Planner
	taper      *taper.Calculator
	predictor  *racepred.Predictor

	// Adapters
	cache   *cache.ParameterCache
	queue   *jobs.InMemoryQueue
	pool    *jobs.Pool
	results chan jobs.Result

	// Configuration
	cacheSize   int
	cacheTTL    time.Duration
	queueSize   int
	workerCount int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCalibrator sets a custom calibrator.
func WithCalibrator(c *calibration.Calibrator) Option {
	return func(e *Engine) {
		if c != nil {
			e.calibrator = c
		}
	}
}

// WithPlanner sets a custom load planner.
func WithPlanner(p *loadplan.Planner) Option {
	return func(e *Engine) {
		if p != nil {
			e.planner = p
		}
	}
}

// WithTaperCalculator sets a custom taper calculator.
func WithTaperCalculator(c *taper.Calculator) Option {
	return func(e *Engine) {
		if c != nil {
			e.taper = c
		}
	}
}

// WithPredictor sets a custom race predictor.
func WithPredictor(p *racepred.Predictor) Option {
	return func(e *Engine) {
		if p != nil {
			e.predictor = p
		}
	}
}

// WithCacheSize sets the parameter cache entry bound.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.cacheSize = size
		}
	}
}

// WithCacheTTL sets the parameter cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.cacheTTL = ttl
		}
	}
}

// WithQueueSize sets the async calibration queue bound.
func WithQueueSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of calibration workers.
func WithWorkerCount(count int) Option {
	return func(e *Engine) {
		if count > 0 {
			e.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		cacheSize:   defaultCacheSize,
		cacheTTL:    defaultCacheTTL,
		queueSize:   defaultQueueSize,
		workerCount: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	// Domain stages are usable before Start; Start only brings up the
	// cache and the worker pool.
	if e.calibrator == nil {
		e.calibrator = calibration.New()
	}
	if e.taper == nil {
		e.taper = taper.New()
	}
	if e.planner == nil {
		e.planner = loadplan.New(loadplan.WithTaperCalculator(e.taper))
	}
	if e.predictor == nil {
		e.predictor = racepred.New()
	}

	return e
}

// OptionsFromConfig maps loaded configuration onto engine options,
// including the domain stages it parameterizes.
func OptionsFromConfig(cfg *config.Config) []Option {
	prior := model.ModelParameters{
		Tau1:       cfg.PriorTau1,
		Tau2:       cfg.PriorTau2,
		K1:         cfg.PriorK1,
		K2:         cfg.PriorK2,
		Baseline:   cfg.PriorBaseline,
		Confidence: types.ConfidenceLow,
	}

	taperCalc := taper.New(
		taper.WithTau2Factor(cfg.Tau2Factor),
	)

	return []Option{
		WithCalibrator(calibration.New(
			calibration.WithPrior(prior),
			calibration.WithIterationBudget(cfg.IterationBudget),
			calibration.WithMarkerMinima(cfg.MinMarkers, cfg.HighMarkers),
			calibration.WithResidualThresholds(cfg.ModerateResidual, cfg.TightResidual),
		)),
		WithTaperCalculator(taperCalc),
		WithPlanner(loadplan.New(
			loadplan.WithTaperCalculator(taperCalc),
			loadplan.WithRampCap(cfg.RampCap),
			loadplan.WithRecovery(cfg.RecoveryEvery, cfg.RecoveryFactor),
			loadplan.WithTaperFloor(cfg.TaperFloor),
			loadplan.WithColdStartFraction(cfg.ColdStartFraction),
		)),
		WithPredictor(racepred.New(
			racepred.WithTrendClamp(cfg.TrendClamp),
			racepred.WithIntervalWidths(cfg.IntervalWidthLow, cfg.IntervalWidthMedium, cfg.IntervalWidthHigh),
		)),
		WithCacheSize(cfg.CacheSize),
		WithCacheTTL(time.Duration(cfg.CacheTTLHours) * time.Hour),
		WithQueueSize(cfg.JobQueueSize),
		WithWorkerCount(cfg.WorkerCount),
	}
}

// Start initializes the engine components and the worker pool.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}

	e.cache = cache.New(
		cache.WithSize(e.cacheSize),
		cache.WithTTL(e.cacheTTL),
	)
	e.queue = jobs.NewInMemoryQueue(
		jobs.WithCapacity(e.queueSize),
	)
	e.results = make(chan jobs.Result, resultsBufferSize)

	e.pool = jobs.NewPool(e.workerCount, e.queue, e.calibrator, jobs.SinkFunc(e.deliver))
	e.pool.Start(ctx)

	e.started = true
	e.logger.Info(ctx, "engine started",
		logger.Int("workers", e.workerCount),
		logger.Int("queue_size", e.queueSize),
		logger.Int("cache_size", e.cacheSize),
	)

	return nil
}

// Stop drains the worker pool and releases resources.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}

	if e.pool != nil {
		_ = e.pool.Shutdown(ctx)
	}

	e.started = false
	e.logger.Info(ctx, "engine stopped")
}

// Calibrate fits model parameters for an athlete, serving repeats of the
// same inputs from the cache.
func (e *Engine) Calibrate(ctx context.Context, athleteID string, history []model.TrainingDay, markers []model.PerformanceMarker) (model.ModelParameters, error) {
	store := e.parameterCache()
	if store == nil {
		return e.calibrator.Calibrate(ctx, history, markers)
	}
	return store.GetOrCompute(ctx, athleteID, history, markers, func(ctx context.Context) (model.ModelParameters, error) {
		return e.calibrator.Calibrate(ctx, history, markers)
	})
}

// CalibrateAsync enqueues a calibration job and returns its ID. The
// result arrives on Results and populates the cache on success.
func (e *Engine) CalibrateAsync(ctx context.Context, athleteID string, history []model.TrainingDay, markers []model.PerformanceMarker) (string, error) {
	e.mu.RLock()
	queue := e.queue
	e.mu.RUnlock()
	if queue == nil {
		return "", jobs.ErrQueueClosed
	}

	j := jobs.Job{
		ID:          uuid.New().String(),
		AthleteID:   athleteID,
		Fingerprint: cache.Fingerprint(history, markers),
		History:     history,
		Markers:     markers,
		Submitted:   time.Now(),
	}
	if err := queue.Enqueue(ctx, j); err != nil {
		return "", err
	}
	return j.ID, nil
}

// Results exposes completed async calibrations.
func (e *Engine) Results() <-chan jobs.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.results
}

// deliver caches successful async results and forwards them to Results.
// The forward is non-blocking; a full results buffer drops the delivery
// and logs instead of stalling workers.
func (e *Engine) deliver(ctx context.Context, r jobs.Result) {
	if r.Err == nil {
		e.mu.RLock()
		store := e.cache
		e.mu.RUnlock()
		if store != nil && r.Fingerprint != "" {
			store.Put(cache.Key(r.AthleteID, r.Fingerprint), r.Params)
		}
	}

	select {
	case e.results <- r:
	default:
		e.logger.Warn(ctx, "results buffer full, dropping delivery",
			logger.String("job_id", r.JobID),
			logger.String("athlete_id", r.AthleteID),
		)
	}
}

// InvalidateAthlete drops cached parameters for an athlete, forcing the
// next calibration to refit. Call after new training data arrives.
func (e *Engine) InvalidateAthlete(athleteID string) int {
	store := e.parameterCache()
	if store == nil {
		return 0
	}
	return store.InvalidateAthlete(athleteID)
}

// CurrentState replays the athlete's history up to asOf and returns the
// terminal fitness and fatigue.
func (e *Engine) CurrentState(params model.ModelParameters, history []model.TrainingDay, asOf time.Time) model.State {
	loads, _ := impulse.DailyLoads(history, asOf)
	states := impulse.Simulate(params, loads, model.State{})
	if len(states) == 0 {
		return model.State{}
	}
	last := states[len(states)-1]
	return model.State{Fitness: last.Fitness, Fatigue: last.Fatigue}
}

// ComputeTaper derives a taper plan for the race distance from the
// athlete's parameters and observed post-race rebounds.
func (e *Engine) ComputeTaper(params model.ModelParameters, markers []model.PerformanceMarker, distanceMeters float64) model.TaperPlan {
	class := types.ClassifyDistance(distanceMeters)
	return e.taper.Compute(params, taper.ClassifyRebounds(markers), class)
}

// PlanLoad builds a weekly load trajectory toward the race in req.
func (e *Engine) PlanLoad(ctx context.Context, params model.ModelParameters, current model.State, req loadplan.Request) (model.LoadTrajectory, error) {
	return e.planner.Optimize(ctx, params, current, req)
}

// Predict estimates a race time from the athlete's state at the race.
func (e *Engine) Predict(ctx context.Context, params model.ModelParameters, terminal model.State, efficiencyTrend, distanceMeters float64, markers []model.PerformanceMarker) (model.RacePrediction, error) {
	return e.predictor.Predict(ctx, params, terminal, efficiencyTrend, distanceMeters, markers)
}

// Forecast runs the full pipeline: calibrate, plan the build toward the
// race, project the state the plan produces, and predict the race time.
func (e *Engine) Forecast(ctx context.Context, req ForecastRequest) (Forecast, error) {
	params, err := e.Calibrate(ctx, req.AthleteID, req.History, req.Markers)
	if err != nil {
		return Forecast{}, err
	}

	current := model.State{}
	if len(req.History) > 0 {
		current = e.CurrentState(params, req.History, req.History[len(req.History)-1].Date)
	}

	trajectory, err := e.PlanLoad(ctx, params, current, loadplan.Request{
		RaceDate:          req.RaceDate,
		WeeksAvailable:    req.WeeksAvailable,
		CurrentWeeklyLoad: req.CurrentWeeklyLoad,
		LoadCeiling:       req.LoadCeiling,
		Distance:          types.ClassifyDistance(req.DistanceMeters),
		Rebounds:          taper.ClassifyRebounds(req.Markers),
	})
	if err != nil {
		return Forecast{}, err
	}

	terminal := e.terminalState(params, current, trajectory)
	prediction, err := e.Predict(ctx, params, terminal, req.EfficiencyTrend, req.DistanceMeters, req.Markers)
	if err != nil {
		return Forecast{}, err
	}

	return Forecast{
		Params:     params,
		Trajectory: trajectory,
		Prediction: prediction,
	}, nil
}

// FitnessTrend returns the daily fitness, fatigue, and form series the
// model produces over the athlete's history.
func (e *Engine) FitnessTrend(params model.ModelParameters, history []model.TrainingDay) []TrendPoint {
	if len(history) == 0 {
		return nil
	}
	loads, start := impulse.DailyLoads(history, history[len(history)-1].Date)
	states := impulse.Simulate(params, loads, model.State{})

	points := make([]TrendPoint, len(states))
	for i, s := range states {
		points[i] = TrendPoint{
			Date:    start.AddDate(0, 0, i),
			Fitness: s.Fitness,
			Fatigue: s.Fatigue,
			Form:    s.Form,
		}
	}
	return points
}

// EngineStats reports current counters.
func (e *Engine) EngineStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{Started: e.started, Workers: e.workerCount}
	if e.cache != nil {
		s.CacheEntries = e.cache.Len()
	}
	if e.queue != nil {
		s.QueuedJobs = e.queue.Len()
	}
	return s
}

// terminalState simulates the planned weekly loads on top of the current
// state to estimate fitness and fatigue on race day.
func (e *Engine) terminalState(params model.ModelParameters, current model.State, trajectory model.LoadTrajectory) model.State {
	if len(trajectory.Weeks) == 0 {
		return current
	}

	loads := make([]float64, 0, len(trajectory.Weeks)*daysPerWeek)
	for _, week := range trajectory.Weeks {
		daily := week.TargetLoad / daysPerWeek
		for d := 0; d < daysPerWeek; d++ {
			loads = append(loads, daily)
		}
	}

	states := impulse.Simulate(params, loads, current)
	if len(states) == 0 {
		return current
	}
	last := states[len(states)-1]
	return model.State{Fitness: last.Fitness, Fatigue: last.Fatigue}
}

// parameterCache returns the cache under the read lock.
func (e *Engine) parameterCache() *cache.ParameterCache {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cache
}
