package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"churn-profit/internal/ml"
	"churn-profit/internal/profit"

	"github.com/rs/zerolog/log"
)

// Output file names written by GenerateReport.
const (
	CurvesFile    = "profit_curves.csv"
	SelectionFile = "selection.json"
	SummaryFile   = "summary.txt"
)

// Reporter generates selection reports
type Reporter struct {
	selection   *ml.Selection
	table       Table
	costBenefit profit.CostBenefit
	outputPath  string
}

// NewReporter creates a new reporter
func NewReporter(selection *ml.Selection, table Table, cb profit.CostBenefit, outputPath string) *Reporter {
	return &Reporter{
		selection:   selection,
		table:       table,
		costBenefit: cb,
		outputPath:  outputPath,
	}
}

// GenerateReport generates all report formats
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateCurves(); err != nil {
		return err
	}
	if err := r.generateJSONReport(); err != nil {
		return err
	}
	if err := r.generateSummary(); err != nil {
		return err
	}
	return nil
}

// generateCurves writes the joint table, one profit column per model
func (r *Reporter) generateCurves() error {
	csvPath := filepath.Join(r.outputPath, CurvesFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create curves file: %w", err)
	}
	defer file.Close()

	if err := WriteTableCSV(file, r.table); err != nil {
		return fmt.Errorf("failed to write curves: %w", err)
	}

	log.Info().Str("file", csvPath).Int("rows", r.table.Rows()).Msg("Profit curves written")
	return nil
}

// WriteTableCSV writes t with a "threshold" column followed by one column
// per model. NaN cells are left empty.
func WriteTableCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	header := append([]string{"threshold"}, t.Models...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for row := 0; row < t.Rows(); row++ {
		record := make([]string, 0, len(t.Models)+1)
		record = append(record, formatCell(t.Thresholds[row]))
		for m := range t.Models {
			record = append(record, formatCell(t.Profits[m][row]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

type failureView struct {
	Model string `json:"model"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type resultView struct {
	Model      string    `json:"model"`
	Threshold  float64   `json:"threshold"`
	Profit     float64   `json:"profit"`
	Thresholds []float64 `json:"thresholds"`
	Profits    []float64 `json:"profits"`
}

type selectionReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	CostBenefit profit.CostBenefit `json:"cost_benefit"`
	Best        *resultView        `json:"best"`
	Results     []resultView       `json:"results"`
	Failures    []failureView      `json:"failures"`
	Reference   string             `json:"reference_model,omitempty"`
	Misaligned  bool               `json:"misaligned_thresholds"`
}

func (r *Reporter) buildSelectionReport() selectionReport {
	rep := selectionReport{
		GeneratedAt: time.Now(),
		CostBenefit: r.costBenefit,
		Results:     []resultView{},
		Failures:    []failureView{},
		Reference:   r.table.Reference,
		Misaligned:  r.table.Misaligned,
	}
	if r.selection == nil {
		return rep
	}

	for _, res := range r.selection.Results {
		rep.Results = append(rep.Results, toResultView(res))
	}
	for _, f := range r.selection.Failures {
		fv := failureView{Model: f.ModelID, Stage: f.Stage}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		}
		rep.Failures = append(rep.Failures, fv)
	}
	if r.selection.Best != nil {
		best := toResultView(*r.selection.Best)
		rep.Best = &best
	}
	return rep
}

func toResultView(res ml.ModelResult) resultView {
	return resultView{
		Model:      res.ModelID,
		Threshold:  res.Threshold,
		Profit:     res.Profit,
		Thresholds: res.Curve.Thresholds,
		Profits:    res.Curve.Profits,
	}
}

// generateJSONReport generates a JSON report with all data
func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, SelectionFile)

	data, err := json.MarshalIndent(r.buildSelectionReport(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// generateSummary generates a human-readable summary
func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	cb := r.costBenefit

	fmt.Fprintf(w, "PROFIT CURVE SELECTION SUMMARY\n")
	fmt.Fprintf(w, "==============================\n\n")

	fmt.Fprintf(w, "COST-BENEFIT MATRIX\n")
	fmt.Fprintf(w, "-------------------\n")
	fmt.Fprintf(w, "True Positive:  %.2f\n", cb.TruePositive())
	fmt.Fprintf(w, "False Positive: %.2f\n", cb.FalsePositive())
	fmt.Fprintf(w, "False Negative: %.2f\n", cb.FalseNegative())
	fmt.Fprintf(w, "True Negative:  %.2f\n\n", cb.TrueNegative())

	fmt.Fprintf(w, "MODELS\n")
	fmt.Fprintf(w, "------\n")
	if r.selection != nil {
		for _, res := range r.selection.Results {
			fmt.Fprintf(w, "%s: best threshold %.4f, profit %.4f per example (%d thresholds)\n",
				res.ModelID, res.Threshold, res.Profit, res.Curve.Len())
		}
		for _, f := range r.selection.Failures {
			fmt.Fprintf(w, "%s: FAILED during %s: %v\n", f.ModelID, f.Stage, f.Err)
		}
	}

	fmt.Fprintf(w, "\nBEST MODEL\n")
	fmt.Fprintf(w, "----------\n")
	if r.selection != nil && r.selection.Best != nil {
		best := r.selection.Best
		fmt.Fprintf(w, "Model: %s\n", best.ModelID)
		fmt.Fprintf(w, "Threshold: %.4f\n", best.Threshold)
		fmt.Fprintf(w, "Expected Profit: %.4f per example\n", best.Profit)
	} else {
		fmt.Fprintf(w, "none (no model produced a curve)\n")
	}

	if r.table.Misaligned {
		fmt.Fprintf(w, "\nNOTE: models have different threshold sets; %s lists profits against %s's thresholds by position.\n",
			CurvesFile, r.table.Reference)
	}
}

// PrintSummary prints a summary to w
func (r *Reporter) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n=== PROFIT CURVE RESULTS ===")
	if r.selection != nil {
		for _, res := range r.selection.Results {
			fmt.Fprintf(w, "%-20s threshold %.4f  profit %10.4f\n", res.ModelID, res.Threshold, res.Profit)
		}
		for _, f := range r.selection.Failures {
			fmt.Fprintf(w, "%-20s failed (%s)\n", f.ModelID, f.Stage)
		}
		if r.selection.Best != nil {
			fmt.Fprintf(w, "Best: %s at threshold %.4f (%.4f per example)\n",
				r.selection.Best.ModelID, r.selection.Best.Threshold, r.selection.Best.Profit)
		}
	}
	fmt.Fprintln(w, "============================")
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
