package container

import (
	"fmt"

	"github.com/elstanto/muncon/adapters/fileio"
	"github.com/elstanto/muncon/adapters/manifest"
	"github.com/elstanto/muncon/app"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/config"
	"github.com/elstanto/muncon/internal/covariance"
	"github.com/elstanto/muncon/internal/rng"
	"github.com/elstanto/muncon/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// File collaborators
	Reader    ports.DatasetReader
	Manifests ports.ManifestLoader
	RNG       ports.RNGPort

	// Covariance engine
	Estimator *covariance.Estimator
	Sampler   *covariance.Sampler

	Campaigns *app.CampaignService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(cfg.LogLevel),
	}
	c.initFileIO()
	c.initEngine()
	c.Campaigns = app.NewCampaignService(c.Manifests, c.Reader, c.RNG, c.Estimator, c.Sampler, cfg.Estimation.Workers)

	c.Logger.Debug("container initialized: %d workers, tolerance %g", cfg.Estimation.Workers, cfg.Estimation.FrequencyTolerance)
	return c, nil
}

func (c *Container) initFileIO() {
	c.Reader = fileio.NewReader(c.Config.Output.LegacyCovarianceOrder)
	c.Manifests = manifest.NewLoader()
	c.RNG = rng.NewSource()
}

func (c *Container) initEngine() {
	workers := covariance.WithWorkers(c.Config.Estimation.Workers)
	logger := covariance.WithLogger(c.Logger)
	c.Estimator = covariance.NewEstimator(workers, logger, covariance.WithFrequencyTolerance(c.Config.Estimation.FrequencyTolerance))
	c.Sampler = covariance.NewSampler(workers, logger)
}
