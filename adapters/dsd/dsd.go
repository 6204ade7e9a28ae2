// Package dsd reads and writes DSD text files: a two-port S-parameter record
// per frequency followed by its 8×8 real covariance.
//
// Layout after the comments and the "# <unit> S <format> R <z0>" line:
//
//	<freq> S11 S12 S21 S22            (four pairs in the option line's format)
//	<64 covariance values>            (row-major, 8 per line, RI coordinates)
//
// S-parameters are row-major. The covariance is written in the same order
// unless LegacyCovarianceOrder is set, in which case its S12 and S21 axes are
// exchanged. One-port datasets are padded to the two-port layout.
package dsd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/elstanto/muncon/adapters/touchstone"
	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal/covariance"
	"github.com/elstanto/muncon/ports"

	"gonum.org/v1/gonum/mat"
)

const (
	sparamValues = 8
	width        = 8
	recordWidth  = 1 + sparamValues + width*width
)

// Reader implements ports.DatasetReader for DSD files.
type Reader struct {
	legacyCovarianceOrder bool
}

// NewReader creates a reader. legacyCovarianceOrder undoes the axis exchange
// applied by a writer configured the same way.
func NewReader(legacyCovarianceOrder bool) *Reader {
	return &Reader{legacyCovarianceOrder: legacyCovarianceOrder}
}

// ReadDataset opens and parses path.
func (r *Reader) ReadDataset(ctx context.Context, path string) (*usnp.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Parse(f, path)
}

// Parse reads a DSD stream. The covariance is symmetrized from its upper
// triangle.
func (r *Reader) Parse(in io.Reader, name string) (*usnp.Dataset, error) {
	sc := touchstone.NewScanner(name, recordWidth)
	records, err := sc.Scan(in)
	if err != nil {
		return nil, err
	}
	b, err := usnp.NewBuilder(2)
	if err != nil {
		return nil, err
	}
	opts := sc.Options
	b.SetZ0(complex(opts.Z0, 0)).SetComments(sc.Comments)
	cov := make([]*mat.SymDense, 0, len(records))
	for _, rec := range records {
		freq, err := opts.Unit.ToHz(rec.Values[0])
		if err != nil {
			return nil, err
		}
		row := make([]complex128, 4)
		for k := range row {
			row[k] = usnp.ToRI(opts.Format, rec.Values[1+2*k], rec.Values[2+2*k])
		}
		b.AppendPoint(freq, row)

		c := covariance.Symmetrize(mat.NewDense(width, width, rec.Values[1+sparamValues:]))
		if r.legacyCovarianceOrder {
			c = usnp.SwapV12V21(c)
		}
		cov = append(cov, c)
	}
	return b.SetCovariance(cov).Build()
}

// Writer implements ports.DatasetWriter for DSD files.
type Writer struct{}

// NewWriter creates a DSD writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteDataset writes ds in the two-port layout. The dataset must carry
// covariance and have at most two ports.
func (w *Writer) WriteDataset(ctx context.Context, out io.Writer, ds *usnp.Dataset, opts ports.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ds.Ports() > 2 {
		return fmt.Errorf("%w: DSD holds at most 2 ports", core.NewInvalidPortCountError(ds.Ports()))
	}
	if !ds.HasCovariance() {
		return core.ErrMissingCovariance
	}
	ds, err := usnp.TwoPortLayout(ds)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(out)
	touchstone.WriteComments(bw, ds.Comments())
	bw.WriteString(touchstone.Options{Unit: opts.Unit, Format: opts.Format, Z0: real(ds.Z0()[0])}.String() + "\n")

	for f := 0; f < ds.Len(); f++ {
		freq, err := opts.Unit.FromHz(ds.Frequency(f))
		if err != nil {
			return err
		}
		bw.WriteString(touchstone.FormatFloat(freq))
		for _, v := range ds.SParams(f) {
			a, b := usnp.FromRI(opts.Format, v)
			bw.WriteString(" " + touchstone.FormatFloat(a) + " " + touchstone.FormatFloat(b))
		}
		bw.WriteString("\n")

		c := ds.Covariance(f)
		if opts.LegacyCovarianceOrder {
			c = usnp.SwapV12V21(c)
		}
		for i := 0; i < width; i++ {
			for j := 0; j < width; j++ {
				if j > 0 {
					bw.WriteString(" ")
				}
				bw.WriteString(touchstone.FormatFloat(c.At(i, j)))
			}
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}
