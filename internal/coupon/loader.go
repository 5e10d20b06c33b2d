package coupon

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"product-catalog/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Column order of a coupon definition row.
const (
	colCode = iota
	colType
	colValue
	colOneShot
	colValidFrom
	colValidUntil
	columnCount
)

// fileLoader implements Loader for reading gzipped coupon files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped coupon definition file from local disk.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Definitions, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon file")
		return nil, fmt.Errorf("failed to open coupon file %s: %w", filePath, err)
	}
	defer file.Close()

	defs, err := readDefinitions(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading coupon file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", len(defs.Coupons)).
		Int("rows_rejected", len(defs.Rejected)).
		Msg("coupon file loaded successfully")

	return defs, nil
}

// readDefinitions decompresses r and parses one coupon definition per row.
// Blank lines and lines starting with # are skipped. Malformed rows are
// recorded as rejections.
func readDefinitions(ctx context.Context, r io.Reader, source string) (*Definitions, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	reader := csv.NewReader(gzipReader)
	reader.Comment = '#'
	reader.FieldsPerRecord = columnCount
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	defs := &Definitions{Source: source}

	for row := 1; ; row++ {
		// Check context cancellation periodically
		if row%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				defs.Rejected = append(defs.Rejected, model.CouponRejection{
					Source: source,
					Code:   firstField(record),
					Reason: fmt.Sprintf("row %d: expected %d columns, got %d", row, columnCount, len(record)),
				})
				continue
			}
			return nil, fmt.Errorf("error reading coupon file %s: %w", source, err)
		}

		req, err := parseRecord(record)
		if err != nil {
			defs.Rejected = append(defs.Rejected, model.CouponRejection{
				Source: source,
				Code:   firstField(record),
				Reason: fmt.Sprintf("row %d: %v", row, err),
			})
			continue
		}
		defs.Coupons = append(defs.Coupons, req)
	}

	return defs, nil
}

func parseRecord(record []string) (model.CouponRequest, error) {
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	value, err := decimal.NewFromString(field(colValue))
	if err != nil {
		return model.CouponRequest{}, fmt.Errorf("invalid value %q", field(colValue))
	}

	oneShot := false
	if raw := field(colOneShot); raw != "" {
		if oneShot, err = strconv.ParseBool(raw); err != nil {
			return model.CouponRequest{}, fmt.Errorf("invalid one-shot flag %q", raw)
		}
	}

	from, err := time.Parse(time.RFC3339, field(colValidFrom))
	if err != nil {
		return model.CouponRequest{}, fmt.Errorf("invalid validFrom %q", field(colValidFrom))
	}
	until, err := time.Parse(time.RFC3339, field(colValidUntil))
	if err != nil {
		return model.CouponRequest{}, fmt.Errorf("invalid validUntil %q", field(colValidUntil))
	}

	return model.CouponRequest{
		Code:       field(colCode),
		Type:       model.DiscountType(strings.ToUpper(field(colType))),
		Value:      value,
		OneShot:    &oneShot,
		ValidFrom:  &from,
		ValidUntil: &until,
	}, nil
}

func firstField(record []string) string {
	if len(record) == 0 {
		return ""
	}
	return strings.TrimSpace(record[0])
}

// LoadAll loads every path concurrently and returns the definitions in path order.
// It fails if any file cannot be read.
func LoadAll(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) ([]*Definitions, error) {
	type loadResult struct {
		index int
		defs  *Definitions
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			defs, err := loader.Load(ctx, path)
			resultChan <- loadResult{
				index: index,
				defs:  defs,
				err:   err,
			}
		}(i, path)
	}

	// Wait for all loads to complete
	wg.Wait()
	close(resultChan)

	// Collect results in order
	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	all := make([]*Definitions, 0, len(paths))
	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", paths[i]).
				Msg("failed to load coupon file")
			return nil, fmt.Errorf("failed to load coupon file %s: %w", paths[i], result.err)
		}
		all = append(all, result.defs)
	}

	return all, nil
}
