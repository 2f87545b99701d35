package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"churn-profit/internal/profit"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// LoadCSV reads a header-first CSV where every column is numeric. labelColumn
// names the {0,1} target; all other columns become features in file order.
func LoadCSV(path, labelColumn string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file, labelColumn)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("rows", ds.Len()).
		Int("features", ds.Cols()).
		Int("positives", ds.Positives()).
		Msg("CSV dataset loaded")

	return ds, nil
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, labelColumn string) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	labelIdx := -1
	var names []string
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == labelColumn {
			labelIdx = i
			continue
		}
		names = append(names, col)
	}
	if labelIdx < 0 {
		return Dataset{}, fmt.Errorf("label column %q not found in header", labelColumn)
	}
	if len(names) == 0 {
		return Dataset{}, fmt.Errorf("no feature columns besides %q: %w", labelColumn, profit.ErrEmptyInput)
	}

	var (
		data   []float64
		labels []int
		line   = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}

		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Dataset{}, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			if i == labelIdx {
				if v != 0 && v != 1 {
					return Dataset{}, fmt.Errorf("line %d: label %v: %w", line, v, profit.ErrInvalidLabel)
				}
				labels = append(labels, int(v))
				continue
			}
			data = append(data, v)
		}
	}

	if len(labels) == 0 {
		return Dataset{}, fmt.Errorf("no data rows: %w", profit.ErrEmptyInput)
	}

	ds := Dataset{
		Names:    names,
		Features: mat.NewDense(len(labels), len(names), data),
		Labels:   labels,
	}
	return ds, ds.Validate()
}
