package bootstrap

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tuanio/noisy-student-training-aped/config"
	"github.com/tuanio/noisy-student-training-aped/errors"
	"github.com/tuanio/noisy-student-training-aped/logger"
	"github.com/tuanio/noisy-student-training-aped/metrics"
	"github.com/tuanio/noisy-student-training-aped/observability"
	"github.com/tuanio/noisy-student-training-aped/trainer"
	"github.com/tuanio/noisy-student-training-aped/version"
)

// Tracking settings keys recognized when building the metric sink.
const (
	SettingOTLPEndpoint = "otlp_endpoint"
	SettingRunName      = "run_name"
	SettingEnvironment  = "environment"
)

// App is an assembled training run: validated configuration, initialized
// logging, a metric sink, and the epoch controller ready to train.
type App struct {
	Cfg  *config.TrainingConfig
	Log  *logger.Logger
	Loop *trainer.Loop

	strategy trainer.Strategy
	meter    *sdkmetric.MeterProvider
	tracer   *sdktrace.TracerProvider
}

// New loads the configuration file, initializes the global logger from its
// logging section, builds the metric sink, and constructs the epoch
// controller around the given strategy.
func New(ctx context.Context, configFile string, strategy trainer.Strategy, opts ...Option) (*App, error) {
	o := resolveOptions(opts)

	cfg, err := config.Load(configFile, o.loaderOpts...)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging)
	log := logger.WithComponent("bootstrap")
	log.Info("training harness starting", logger.Fields(
		logger.FieldVersion, version.Get().String(),
		logger.FieldExperiment, cfg.ExperimentPath,
		logger.FieldDevice, cfg.Device,
	))

	app := &App{Cfg: cfg, Log: log, strategy: strategy}

	sink := o.sink
	if sink == nil && cfg.Tracking.Enabled {
		sink, err = app.initObservability(ctx)
		if err != nil {
			return nil, err
		}
	}

	loop, err := trainer.New(cfg, strategy, sink)
	if err != nil {
		return nil, err
	}
	app.Loop = loop
	return app, nil
}

// initObservability stands up meter and tracer providers from the
// tracking settings, so epoch spans export alongside the scalar metrics,
// and wraps the meter as the run's scalar sink.
func (a *App) initObservability(ctx context.Context) (metrics.Sink, error) {
	runName := a.Cfg.Tracking.Settings[SettingRunName]
	if runName == "" {
		runName = "training-run"
	}
	endpoint := a.Cfg.Tracking.Settings[SettingOTLPEndpoint]
	env := a.Cfg.Tracking.Settings[SettingEnvironment]

	mcfg := observability.DefaultMeterConfig(runName)
	if endpoint != "" {
		mcfg.Endpoint = endpoint
	}
	if env != "" {
		mcfg.Environment = env
	}
	meter, err := observability.InitMeter(ctx, mcfg)
	if err != nil {
		return nil, err
	}
	a.meter = meter

	tcfg := observability.DefaultTracerConfig(runName)
	if endpoint != "" {
		tcfg.Endpoint = endpoint
	}
	if env != "" {
		tcfg.Environment = env
	}
	tracer, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, err
	}
	a.tracer = tracer

	return metrics.NewOTelSink(meter.Meter(runName)), nil
}

// Resume locates the highest-numbered checkpoint version for the app's
// strategy and restores the epoch controller from it. An empty experiment
// directory is a cold start, not an error.
func (a *App) Resume() error {
	if a.strategy == nil {
		return nil
	}
	latest, err := a.Loop.Store().Latest(a.strategy.Name())
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeCheckpointNotFound) {
			a.Log.Info("no checkpoint to resume from, cold start")
			return nil
		}
		return err
	}
	a.Log.Info("resuming from checkpoint", logger.Fields(
		logger.FieldVersion, latest.Number,
		"path", latest.TrainerPath,
	))
	return a.Loop.RestoreFromCheckpoint(map[string]string{
		trainer.RestoreKeyTrainer: latest.TrainerPath,
	})
}

// Shutdown flushes the metric and trace providers, if they were
// initialized.
func (a *App) Shutdown(ctx context.Context) error {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if a.meter == nil {
		return nil
	}
	return a.meter.Shutdown(ctx)
}
