package ports

import (
	"context"
	"io"

	"github.com/elstanto/muncon/domain/usnp"
)

// DatasetReader returns a fully built dataset from a file collaborator. The
// core never inspects raw file bytes.
type DatasetReader interface {
	ReadDataset(ctx context.Context, path string) (*usnp.Dataset, error)
}

// DatasetWriter serializes a dataset. Implementations apply the format and
// port-order conversions of their file convention before emitting text.
type DatasetWriter interface {
	WriteDataset(ctx context.Context, w io.Writer, ds *usnp.Dataset, opts WriteOptions) error
}

// WriteOptions selects the numeric representation and frequency unit.
type WriteOptions struct {
	Format usnp.Format
	Unit   usnp.FrequencyUnit

	// LegacyCovarianceOrder swaps the covariance S12/S21 axes on write, to
	// reproduce files whose covariance follows the Touchstone port order.
	// It never affects the S-parameter columns.
	LegacyCovarianceOrder bool
}

// DefaultWriteOptions writes RI values in GHz.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Format: usnp.FormatRI, Unit: usnp.GHz}
}

// CampaignManifest lists the files of one measurement campaign with paths
// already resolved.
type CampaignManifest struct {
	Name                   string
	Reference              string
	MonteCarloSamples      []string
	CrossValidationSamples []string
}

// ManifestLoader reads a campaign description.
type ManifestLoader interface {
	LoadManifest(ctx context.Context, path string) (*CampaignManifest, error)
}
