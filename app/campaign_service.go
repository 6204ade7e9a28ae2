package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/covariance"
	"github.com/elstanto/muncon/ports"
)

// CampaignService wires file collaborators to MeasurementSet for the CLI.
type CampaignService struct {
	manifests ports.ManifestLoader
	reader    ports.DatasetReader
	rngPort   ports.RNGPort
	estimator *covariance.Estimator
	sampler   *covariance.Sampler
	workers   int
	log       *internal.Logger
}

// CampaignRequest selects the ensemble and policy for a build.
type CampaignRequest struct {
	ManifestPath    string
	Ensemble        EnsembleKind
	UseEnsembleMean bool
}

// ResampleRequest describes the build → draw → rebuild sequence: build the
// source ensemble's covariance, draw a synthetic Monte Carlo ensemble from it,
// then rebuild the covariance from the synthetic ensemble.
type ResampleRequest struct {
	CampaignRequest
	Count int
	Seed  int64
}

// CampaignResult is the outcome of a build.
type CampaignResult struct {
	Set       *MeasurementSet
	Output    *usnp.Dataset
	RuntimeMs int64
}

// NewCampaignService creates a campaign service
func NewCampaignService(manifests ports.ManifestLoader, reader ports.DatasetReader, rngPort ports.RNGPort, estimator *covariance.Estimator, sampler *covariance.Sampler, workers int) *CampaignService {
	return &CampaignService{
		manifests: manifests,
		reader:    reader,
		rngPort:   rngPort,
		estimator: estimator,
		sampler:   sampler,
		workers:   workers,
		log:       internal.DefaultLogger.With("campaign"),
	}
}

// Open loads the reference and every ensemble listed in the manifest.
func (s *CampaignService) Open(ctx context.Context, manifestPath string) (*MeasurementSet, error) {
	manifest, err := s.manifests.LoadManifest(ctx, manifestPath)
	if err != nil {
		return nil, err
	}

	set := NewMeasurementSet(manifest.Name, s.estimator, s.sampler)
	set.SetReadConcurrency(s.workers)
	if err := set.LoadReferenceFrom(ctx, s.reader, manifest.Reference); err != nil {
		return nil, err
	}
	if len(manifest.MonteCarloSamples) > 0 {
		if err := set.LoadEnsembleFrom(ctx, s.reader, MonteCarlo, manifest.MonteCarloSamples); err != nil {
			return nil, err
		}
	}
	if len(manifest.CrossValidationSamples) > 0 {
		if err := set.LoadEnsembleFrom(ctx, s.reader, CrossValidation, manifest.CrossValidationSamples); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Build opens the campaign and estimates the requested ensemble's covariance.
func (s *CampaignService) Build(ctx context.Context, req CampaignRequest) (*CampaignResult, error) {
	start := time.Now()
	set, err := s.Open(ctx, req.ManifestPath)
	if err != nil {
		return nil, err
	}
	out, err := set.BuildCovariance(ctx, req.Ensemble, req.UseEnsembleMean)
	if err != nil {
		return nil, err
	}
	return &CampaignResult{Set: set, Output: out, RuntimeMs: time.Since(start).Milliseconds()}, nil
}

// Resample runs ResampleRequest's sequence.
func (s *CampaignService) Resample(ctx context.Context, req ResampleRequest) (*CampaignResult, error) {
	start := time.Now()
	first, err := s.Build(ctx, req.CampaignRequest)
	if err != nil {
		return nil, err
	}
	r := s.rngPort.Stream("resample", req.Seed)
	if err := first.Set.ResampleMonteCarlo(ctx, req.Count, r); err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	out, err := first.Set.BuildCovariance(ctx, MonteCarlo, true)
	if err != nil {
		return nil, err
	}
	return &CampaignResult{Set: first.Set, Output: out, RuntimeMs: time.Since(start).Milliseconds()}, nil
}

// Sample draws count datasets from a dataset that carries covariance and
// hands each one to emit in order.
func (s *CampaignService) Sample(ctx context.Context, ds *usnp.Dataset, count int, seed int64, emit func(i int, d *usnp.Dataset) error) error {
	samples, err := s.sampler.Sample(ctx, ds, count, s.rngPort.Stream("sample", seed))
	if err != nil {
		return err
	}
	for i, d := range samples {
		if err := emit(i, d); err != nil {
			return err
		}
	}
	s.log.Info("wrote %d samples", len(samples))
	return nil
}

// Write serializes ds with the given writer.
func (s *CampaignService) Write(ctx context.Context, w io.Writer, writer ports.DatasetWriter, ds *usnp.Dataset, opts ports.WriteOptions) error {
	return writer.WriteDataset(ctx, w, ds, opts)
}
