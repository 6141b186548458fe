package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// rowReader streams a header-led CSV source one RawRecord at a time.
type rowReader struct {
	csv    *csv.Reader
	header []string
	line   int
}

func newRowReader(r io.Reader) (*rowReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &rowReader{csv: reader}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		cols[i] = strings.TrimSpace(h)
	}

	return &rowReader{csv: reader, header: cols, line: 1}, nil
}

// next returns the next row, or io.EOF at the end of input. Quote problems
// are tolerated the way a lenient CSV reader does, so any error here is an
// I/O failure.
func (rr *rowReader) next() (RawRecord, error) {
	if rr.header == nil {
		return nil, io.EOF
	}

	row, err := rr.csv.Read()
	if err != nil {
		return nil, err
	}
	// A quoted field may span lines; report where the record starts.
	rr.line, _ = rr.csv.FieldPos(0)

	raw := make(RawRecord, len(rr.header))
	for i, col := range rr.header {
		if i < len(row) {
			raw[col] = row[i]
		}
	}
	return raw, nil
}
