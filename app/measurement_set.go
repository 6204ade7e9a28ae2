package app

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/covariance"
	"github.com/elstanto/muncon/ports"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle position of a MeasurementSet.
type State int

const (
	StateEmpty State = iota
	StateReferenceLoaded
	StateSamplesLoaded
	StateCovarianceBuilt
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateReferenceLoaded:
		return "ReferenceLoaded"
	case StateSamplesLoaded:
		return "SamplesLoaded"
	case StateCovarianceBuilt:
		return "CovarianceBuilt"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EnsembleKind names one of the two sample ensembles of a campaign.
type EnsembleKind string

const (
	MonteCarlo      EnsembleKind = "mc"
	CrossValidation EnsembleKind = "cv"
)

// ParseEnsembleKind accepts "mc" or "cv".
func ParseEnsembleKind(s string) (EnsembleKind, error) {
	switch EnsembleKind(s) {
	case MonteCarlo, CrossValidation:
		return EnsembleKind(s), nil
	default:
		return "", fmt.Errorf("unknown ensemble %q (want mc or cv)", s)
	}
}

// MeasurementSet is one campaign: a read-only reference estimate, Monte Carlo
// and cross-validation ensembles, and the combined mean+covariance output.
type MeasurementSet struct {
	mu sync.RWMutex

	id        core.CampaignID
	name      string
	state     State
	reference *usnp.Dataset
	ensembles map[EnsembleKind][]*usnp.Dataset
	loads     map[EnsembleKind]uint64
	output    *usnp.Dataset
	builtFrom EnsembleKind

	estimator *covariance.Estimator
	sampler   *covariance.Sampler
	workers   int
	log       *internal.Logger
}

// NewMeasurementSet creates an empty campaign.
func NewMeasurementSet(name string, estimator *covariance.Estimator, sampler *covariance.Sampler) *MeasurementSet {
	if estimator == nil {
		estimator = covariance.NewEstimator()
	}
	if sampler == nil {
		sampler = covariance.NewSampler()
	}
	id := core.NewCampaignID()
	return &MeasurementSet{
		id:        id,
		name:      name,
		ensembles: make(map[EnsembleKind][]*usnp.Dataset),
		loads:     make(map[EnsembleKind]uint64),
		estimator: estimator,
		sampler:   sampler,
		workers:   runtime.NumCPU(),
		log:       internal.DefaultLogger.With("campaign " + core.ID(id).Short()),
	}
}

// SetReadConcurrency bounds parallel file reads in LoadEnsembleFrom.
func (m *MeasurementSet) SetReadConcurrency(n int) {
	if n >= 1 {
		m.workers = n
	}
}

func (m *MeasurementSet) ID() core.CampaignID { return m.id }
func (m *MeasurementSet) Name() string        { return m.name }

// State returns the current lifecycle state.
func (m *MeasurementSet) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reference returns the reference estimate, or nil before it is loaded.
func (m *MeasurementSet) Reference() *usnp.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reference
}

// Ensemble returns the samples loaded for kind.
func (m *MeasurementSet) Ensemble(kind EnsembleKind) []*usnp.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*usnp.Dataset(nil), m.ensembles[kind]...)
}

// Output returns the mean+covariance dataset built by BuildCovariance.
func (m *MeasurementSet) Output() (*usnp.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateCovarianceBuilt {
		return nil, core.NewNotReadyError(m.state.String(), StateCovarianceBuilt.String())
	}
	return m.output, nil
}

// LoadReference installs the reference estimate. It is read-only afterwards.
func (m *MeasurementSet) LoadReference(ds *usnp.Dataset) error {
	if ds == nil {
		return fmt.Errorf("reference dataset is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateEmpty {
		return core.ErrReferenceLoaded
	}
	m.reference = ds
	m.state = StateReferenceLoaded
	m.log.Info("reference loaded: %d ports, %d points", ds.Ports(), ds.Len())
	return nil
}

// LoadReferenceFrom reads the reference through a file collaborator.
func (m *MeasurementSet) LoadReferenceFrom(ctx context.Context, reader ports.DatasetReader, path string) error {
	ds, err := reader.ReadDataset(ctx, path)
	if err != nil {
		return fmt.Errorf("read reference %s: %w", path, err)
	}
	return m.LoadReference(ds)
}

// LoadEnsemble installs the samples of one ensemble. A covariance built from
// the same ensemble is discarded; one built from the other ensemble is kept.
func (m *MeasurementSet) LoadEnsemble(kind EnsembleKind, samples []*usnp.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateEmpty {
		return core.NewNotReadyError(m.state.String(), StateReferenceLoaded.String())
	}
	m.install(kind, append([]*usnp.Dataset(nil), samples...))
	if m.state == StateCovarianceBuilt && m.builtFrom != kind {
		m.log.Info("%s ensemble loaded: %d samples", kind, len(samples))
		return nil
	}
	m.output = nil
	m.state = StateSamplesLoaded
	m.log.Info("%s ensemble loaded: %d samples", kind, len(samples))
	return nil
}

// install replaces an ensemble and bumps its load counter. Callers hold mu.
func (m *MeasurementSet) install(kind EnsembleKind, samples []*usnp.Dataset) {
	m.ensembles[kind] = samples
	m.loads[kind]++
}

// LoadEnsembleFrom reads sample files in parallel and installs them in path
// order. Path resolution belongs to the caller.
func (m *MeasurementSet) LoadEnsembleFrom(ctx context.Context, reader ports.DatasetReader, kind EnsembleKind, paths []string) error {
	if m.State() == StateEmpty {
		return core.NewNotReadyError(StateEmpty.String(), StateReferenceLoaded.String())
	}
	samples := make([]*usnp.Dataset, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, p := range paths {
		g.Go(func() error {
			ds, err := reader.ReadDataset(ctx, p)
			if err != nil {
				return fmt.Errorf("read %s sample %d (%s): %w", kind, i, p, err)
			}
			samples[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return m.LoadEnsemble(kind, samples)
}

// BuildCovariance estimates mean and covariance from one ensemble. It can be
// repeated, with another policy or ensemble, and replaces the output each time.
func (m *MeasurementSet) BuildCovariance(ctx context.Context, kind EnsembleKind, useEnsembleMean bool) (*usnp.Dataset, error) {
	m.mu.RLock()
	state := m.state
	ref := m.reference
	samples, ok := m.ensembles[kind]
	load := m.loads[kind]
	m.mu.RUnlock()

	if state < StateSamplesLoaded {
		return nil, core.NewNotReadyError(state.String(), StateSamplesLoaded.String())
	}
	if !ok {
		return nil, fmt.Errorf("%w: no %s ensemble loaded", core.ErrNotReady, kind)
	}

	out, err := m.estimator.Estimate(ctx, ref, samples, useEnsembleMean)
	if err != nil {
		return nil, fmt.Errorf("build %s covariance: %w", kind, err)
	}

	if err := m.commit(kind, load, out); err != nil {
		return nil, err
	}
	m.log.Info("covariance built from %d %s samples (ensemble mean: %t), fingerprint %s",
		len(samples), kind, useEnsembleMean, out.Fingerprint().Short())
	return out, nil
}

// commit installs out unless the ensemble it was built from has been replaced
// since load was read.
func (m *MeasurementSet) commit(kind EnsembleKind, load uint64, out *usnp.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loads[kind] != load {
		return fmt.Errorf("%w: %s ensemble replaced during build", core.ErrNotReady, kind)
	}
	m.output = out
	m.builtFrom = kind
	m.state = StateCovarianceBuilt
	return nil
}

// GenerateSamples draws count correlated datasets from the built covariance.
func (m *MeasurementSet) GenerateSamples(ctx context.Context, count int, r *rand.Rand) ([]*usnp.Dataset, error) {
	out, err := m.Output()
	if err != nil {
		return nil, err
	}
	return m.sampler.Sample(ctx, out, count, r)
}

// ResampleMonteCarlo draws count samples from the built covariance and
// installs them as the Monte Carlo ensemble, so BuildCovariance(MonteCarlo, ...)
// can then be run on synthetic data. An output built from the Monte Carlo
// ensemble is dropped, as in LoadEnsemble; one built from cross-validation is
// kept.
func (m *MeasurementSet) ResampleMonteCarlo(ctx context.Context, count int, r *rand.Rand) error {
	samples, err := m.GenerateSamples(ctx, count, r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.install(MonteCarlo, samples)
	if m.builtFrom == MonteCarlo {
		m.output = nil
		m.state = StateSamplesLoaded
	}
	m.mu.Unlock()
	m.log.Info("Monte Carlo ensemble replaced by %d generated samples", count)
	return nil
}
