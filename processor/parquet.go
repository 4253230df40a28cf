package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/poiesic/vsloader/core"
	"github.com/poiesic/vsloader/loader"
	"github.com/tmc/langchaingo/schema"
)

const parquetReadBatch = 256

// ParquetProcessor reads Parquet files through the generic row API so that
// no schema needs to be known ahead of time.
type ParquetProcessor struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger
}

var _ Processor = (*ParquetProcessor)(nil)

// leaf describes one leaf column of the file schema.
type leaf struct {
	name     string // Top-level column name
	repeated bool
}

// NewParquetProcessor creates a Parquet processor.
func NewParquetProcessor(cfg core.ProcessorConfig, logger *slog.Logger) *ParquetProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetProcessor{
		cfg:    cfg,
		logger: logger.With("processor", "parquet"),
	}
}

// TransformToDocs parses raw as Parquet and returns one document per row.
func (p *ParquetProcessor) TransformToDocs(ctx context.Context, raw loader.RawData) ([]schema.Document, error) {
	input, size, closeFn, err := openReaderAt(raw)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	file, err := parquet.OpenFile(input, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, raw.Name, err)
	}

	sch := file.Schema()
	paths := sch.Columns()
	leaves := make([]leaf, len(paths))
	columns := make(map[string]int, len(paths))
	for i, path := range paths {
		col, _ := sch.Lookup(path...)
		leaves[i] = leaf{name: path[0], repeated: col.MaxRepetitionLevel > 0}
		if _, ok := columns[path[0]]; !ok {
			columns[path[0]] = i
		}
	}
	if err := checkColumns(p.cfg, columns); err != nil {
		return nil, err
	}

	reader := parquet.NewReader(file)
	defer reader.Close()

	docs := make([]schema.Document, 0, file.NumRows())
	rows := make([]parquet.Row, parquetReadBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := reader.ReadRows(rows)
		for _, row := range rows[:n] {
			cells := rowCells(row, leaves)
			docs = append(docs, buildDocument(p.cfg, func(col string) cell {
				return cells[col]
			}))
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedInput, raw.Name, readErr)
		}
		if n == 0 {
			break
		}
	}

	p.logger.Debug("transformed parquet", "file", raw.Name, "rows", len(docs))
	return docs, nil
}

// rowCells groups a row's leaf values by top-level column name.
func rowCells(row parquet.Row, leaves []leaf) map[string]cell {
	cells := make(map[string]cell, len(leaves))
	for _, v := range row {
		idx := v.Column()
		if idx < 0 || idx >= len(leaves) {
			continue
		}
		l := leaves[idx]
		if l.repeated {
			c, ok := cells[l.name]
			if !ok {
				c = listCell([]string{})
			}
			if !v.IsNull() {
				c.list = append(c.list, valueCell(v).text())
			}
			cells[l.name] = c
			continue
		}
		cells[l.name] = valueCell(v)
	}
	return cells
}

// valueCell converts a scalar Parquet value to a typed cell.
func valueCell(v parquet.Value) cell {
	if v.IsNull() {
		return cell{}
	}
	switch v.Kind() {
	case parquet.Boolean:
		return stringCell(strconv.FormatBool(v.Boolean()))
	case parquet.Int32:
		return intCell(int64(v.Int32()))
	case parquet.Int64:
		return intCell(v.Int64())
	case parquet.Float:
		return floatCell(float64(v.Float()))
	case parquet.Double:
		return floatCell(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return stringCell(string(v.ByteArray()))
	default:
		return stringCell(v.String())
	}
}

// openReaderAt exposes raw data as random-access input.
func openReaderAt(raw loader.RawData) (io.ReaderAt, int64, func(), error) {
	if raw.InMemory() {
		return bytes.NewReader(raw.Bytes), int64(len(raw.Bytes)), func() {}, nil
	}

	f, err := os.Open(raw.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil, fmt.Errorf("%w: %s", core.ErrNotFound, raw.Path)
		}
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}
	return f, info.Size(), func() { f.Close() }, nil
}
