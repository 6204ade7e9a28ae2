package touchstone

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
)

var extPattern = regexp.MustCompile(`(?i)^\.s(\d+)p$`)

// PortsFromPath reads the port count from a ".sNp" extension.
func PortsFromPath(path string) (int, error) {
	m := extPattern.FindStringSubmatch(filepath.Ext(path))
	if m == nil {
		return 0, fmt.Errorf("%w: %s is not a .sNp file", core.ErrMalformedFile, path)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, core.NewInvalidPortCountError(n)
	}
	return n, nil
}

// Reader implements ports.DatasetReader for Touchstone files.
type Reader struct {
	ports int
}

// NewReader creates a reader that takes the port count from the extension.
func NewReader() *Reader {
	return &Reader{}
}

// NewReaderForPorts creates a reader with a fixed port count, for files whose
// extension does not carry one.
func NewReaderForPorts(ports int) *Reader {
	return &Reader{ports: ports}
}

// ReadDataset opens and parses path.
func (r *Reader) ReadDataset(ctx context.Context, path string) (*usnp.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ports := r.ports
	if ports == 0 {
		n, err := PortsFromPath(path)
		if err != nil {
			return nil, err
		}
		ports = n
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path, ports)
}

// Parse reads a Touchstone stream for a given port count. 2-port values are
// stored in the file as S11 S21 S12 S22 and are returned in row-major order.
func Parse(in io.Reader, name string, ports int) (*usnp.Dataset, error) {
	b, err := usnp.NewBuilder(ports)
	if err != nil {
		return nil, err
	}
	n := ports * ports
	sc := NewScanner(name, 1+2*n)
	records, err := sc.Scan(in)
	if err != nil {
		return nil, err
	}

	opts := sc.Options
	b.SetZ0(complex(opts.Z0, 0))
	b.SetComments(sc.Comments)
	for _, rec := range records {
		freq, err := opts.Unit.ToHz(rec.Values[0])
		if err != nil {
			return nil, err
		}
		row := make([]complex128, n)
		for k := 0; k < n; k++ {
			row[k] = usnp.ToRI(opts.Format, rec.Values[1+2*k], rec.Values[2+2*k])
		}
		b.AppendPoint(freq, usnp.SwapS12S21(row))
	}
	return b.Build()
}
