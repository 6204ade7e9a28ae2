// Package fileio picks the dataset reader or writer for a path by extension.
package fileio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/elstanto/muncon/adapters/dsd"
	"github.com/elstanto/muncon/adapters/touchstone"
	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/ports"
)

// Reader implements ports.DatasetReader over .dsd and .sNp files.
type Reader struct {
	dsd        *dsd.Reader
	touchstone *touchstone.Reader
}

// NewReader creates a dispatching reader.
func NewReader(legacyCovarianceOrder bool) *Reader {
	return &Reader{
		dsd:        dsd.NewReader(legacyCovarianceOrder),
		touchstone: touchstone.NewReader(),
	}
}

// ReadDataset reads path with the reader for its extension.
func (r *Reader) ReadDataset(ctx context.Context, path string) (*usnp.Dataset, error) {
	if IsDSD(path) {
		return r.dsd.ReadDataset(ctx, path)
	}
	return r.touchstone.ReadDataset(ctx, path)
}

// WriterFor returns the writer for path's extension and the port count the
// file will hold.
func WriterFor(path string, ds *usnp.Dataset) (ports.DatasetWriter, error) {
	if IsDSD(path) {
		return dsd.NewWriter(), nil
	}
	n, err := touchstone.PortsFromPath(path)
	if err != nil {
		return nil, err
	}
	if n != ds.Ports() {
		return nil, fmt.Errorf("%w: %s holds %d ports, dataset has %d", core.ErrPortMismatch, path, n, ds.Ports())
	}
	return touchstone.NewWriter(), nil
}

// TouchstoneName returns "<stem>.s<N>p" for a dataset with n ports.
func TouchstoneName(stem string, n int) string {
	return fmt.Sprintf("%s.s%dp", stem, n)
}

func IsDSD(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dsd")
}
