package processor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/tmc/langchaingo/schema"
)

// CSVProcessor reads comma-separated files with a header row.
//
// Column types are inferred per column: integer if every non-empty cell
// parses as an integer, float if every non-empty cell parses as a number,
// string otherwise. Empty cells in numeric columns are nulls; in string
// columns they are empty strings.
type CSVProcessor struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger
}

var _ Processor = (*CSVProcessor)(nil)

// NewCSVProcessor creates a CSV processor.
func NewCSVProcessor(cfg core.ProcessorConfig, logger *slog.Logger) *CSVProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVProcessor{
		cfg:    cfg,
		logger: logger.With("processor", "csv"),
	}
}

// TransformToDocs parses raw as CSV and returns one document per data row.
func (p *CSVProcessor) TransformToDocs(ctx context.Context, raw loader.RawData) ([]schema.Document, error) {
	rc, err := raw.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s has no header row", core.ErrMalformedInput, raw.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, raw.Name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	if err := checkColumns(p.cfg, columns); err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, raw.Name, err)
	}

	kinds := inferKinds(records, columns, p.cfg)

	docs := make([]schema.Document, 0, len(records))
	for i, record := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		docs = append(docs, buildDocument(p.cfg, func(col string) cell {
			idx := columns[col]
			if idx >= len(record) {
				return cell{}
			}
			return parseCell(record[idx], kinds[col])
		}))
	}

	p.logger.Debug("transformed csv", "file", raw.Name, "rows", len(records))
	return docs, nil
}

// inferKinds decides a type for every referenced column from all its cells.
func inferKinds(records [][]string, columns map[string]int, cfg core.ProcessorConfig) map[string]cellKind {
	kinds := make(map[string]cellKind)
	referenced := append(append([]string{}, cfg.ContentColumns...), cfg.MetadataColumns...)

	for _, col := range referenced {
		if _, done := kinds[col]; done {
			continue
		}
		idx := columns[col]
		kind := cellInt
		seen := false
		for _, record := range records {
			if idx >= len(record) || record[idx] == "" {
				continue
			}
			seen = true
			v := strings.TrimSpace(record[idx])
			if kind == cellInt {
				if _, err := strconv.ParseInt(v, 10, 64); err == nil {
					continue
				}
				kind = cellFloat
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				kind = cellString
				break
			}
		}
		if !seen {
			kind = cellString
		}
		kinds[col] = kind
	}
	return kinds
}

// parseCell converts a raw CSV field using the inferred column kind.
func parseCell(raw string, kind cellKind) cell {
	if raw == "" && kind != cellString {
		return cell{}
	}
	v := strings.TrimSpace(raw)
	switch kind {
	case cellInt:
		i, _ := strconv.ParseInt(v, 10, 64)
		return intCell(i)
	case cellFloat:
		f, _ := strconv.ParseFloat(v, 64)
		return floatCell(f)
	default:
		return stringCell(raw)
	}
}
