package touchstone

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/ports"
)

// pairsPerLine is the Touchstone v1 line limit for 3-port and larger files.
const pairsPerLine = 4

// Writer implements ports.DatasetWriter for Touchstone files. Covariance is
// not representable and is dropped.
type Writer struct{}

// NewWriter creates a Touchstone writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteDataset writes comments, the option line and one record per frequency.
func (w *Writer) WriteDataset(ctx context.Context, out io.Writer, ds *usnp.Dataset, opts ports.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	WriteComments(bw, ds.Comments())
	z0 := float64(usnp.DefaultZ0)
	if zs := ds.Z0(); len(zs) > 0 {
		z0 = real(zs[0])
	}
	bw.WriteString(Options{Unit: opts.Unit, Format: opts.Format, Z0: z0}.String() + "\n")

	p := ds.Ports()
	for f := 0; f < ds.Len(); f++ {
		freq, err := opts.Unit.FromHz(ds.Frequency(f))
		if err != nil {
			return err
		}
		row := usnp.SwapS12S21(ds.SParams(f))
		bw.WriteString(FormatFloat(freq))
		if p <= 2 {
			writePairs(bw, opts.Format, row)
			bw.WriteString("\n")
			continue
		}
		for i := 0; i < p; i++ {
			line := row[i*p : (i+1)*p]
			for len(line) > 0 {
				k := min(pairsPerLine, len(line))
				writePairs(bw, opts.Format, line[:k])
				bw.WriteString("\n")
				line = line[k:]
			}
		}
	}
	return bw.Flush()
}

// WriteComments emits comment lines, adding the "!" marker where missing.
func WriteComments(bw *bufio.Writer, comments []string) {
	for _, c := range comments {
		if !strings.HasPrefix(strings.TrimSpace(c), "!") {
			c = "! " + c
		}
		bw.WriteString(c + "\n")
	}
}

func writePairs(bw *bufio.Writer, format usnp.Format, values []complex128) {
	for _, v := range values {
		a, b := usnp.FromRI(format, v)
		bw.WriteString(" " + FormatFloat(a) + " " + FormatFloat(b))
	}
}
