package touchstone

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/elstanto/muncon/domain/core"
)

// Record is one frequency point: the raw frequency followed by its values.
type Record struct {
	Line   int
	Values []float64
}

// Scanner splits a Touchstone-style text stream into comments, the option
// line and fixed-width numeric records. Records may wrap across any number
// of lines and text after "!" on a data line is ignored.
type Scanner struct {
	path     string
	width    int
	Comments []string
	Options  Options
	sawOpts  bool
}

// NewScanner creates a scanner for records of width numbers. path only
// labels errors.
func NewScanner(path string, width int) *Scanner {
	return &Scanner{path: path, width: width, Options: DefaultOptions()}
}

// Scan reads every record from r.
func (s *Scanner) Scan(r io.Reader) ([]Record, error) {
	var (
		records []Record
		pending []float64
		start   int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "!"):
			s.Comments = append(s.Comments, strings.TrimRight(raw, "\r"))
			continue
		case strings.HasPrefix(line, "#"):
			if s.sawOpts {
				continue
			}
			opts, err := ParseOptionLine(line)
			if err != nil {
				return nil, core.WrapMalformedError(s.path, lineNo, err)
			}
			s.Options = opts
			s.sawOpts = true
			continue
		case strings.HasPrefix(line, "["):
			return nil, core.NewMalformedError(s.path, lineNo, "keyword sections are not supported")
		}

		if i := strings.IndexByte(line, '!'); i >= 0 {
			line = line[:i]
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, core.NewMalformedError(s.path, lineNo, "bad number "+strconv.Quote(field))
			}
			if len(pending) == 0 {
				start = lineNo
			}
			pending = append(pending, v)
			if len(pending) == s.width {
				records = append(records, Record{Line: start, Values: pending})
				pending = nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, core.NewMalformedError(s.path, start, "incomplete record: "+
			strconv.Itoa(len(pending))+" of "+strconv.Itoa(s.width)+" values")
	}
	return records, nil
}
