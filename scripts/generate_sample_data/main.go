// Command generate_sample_data writes a synthetic churn dataset as train and
// test CSVs that profitcurve can evaluate directly.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var header = []string{"tenure_months", "monthly_charges", "support_calls", "contract_months", "churn"}

func main() {
	var (
		outDir    = flag.String("out", "data", "Output directory")
		rows      = flag.Int("rows", 2000, "Total customers to generate")
		testShare = flag.Float64("test-share", 0.3, "Fraction of customers written to test.csv")
		seed      = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *rows < 2 || *testShare <= 0 || *testShare >= 1 {
		log.Fatal().Int("rows", *rows).Float64("test_share", *testShare).Msg("Need at least 2 rows and a test share in (0,1)")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	rng := rand.New(rand.NewSource(*seed))
	customers := make([][]string, *rows)
	churners := 0
	for i := range customers {
		customers[i] = generateCustomer(rng)
		if customers[i][len(header)-1] == "1" {
			churners++
		}
	}

	nTest := int(math.Round(float64(*rows) * *testShare))
	nTest = max(1, min(nTest, *rows-1))

	trainPath := filepath.Join(*outDir, "train.csv")
	testPath := filepath.Join(*outDir, "test.csv")
	if err := writeCSV(trainPath, customers[nTest:]); err != nil {
		log.Fatal().Err(err).Msg("Failed to write training set")
	}
	if err := writeCSV(testPath, customers[:nTest]); err != nil {
		log.Fatal().Err(err).Msg("Failed to write test set")
	}

	log.Info().
		Str("train", trainPath).
		Str("test", testPath).
		Int("rows", *rows).
		Float64("churn_rate", float64(churners)/float64(*rows)).
		Msg("Generated sample churn data")
}

// generateCustomer draws one customer; churn follows a logistic link on
// short tenure, high charges, frequent support calls and monthly contracts.
func generateCustomer(rng *rand.Rand) []string {
	tenure := math.Floor(rng.ExpFloat64() * 24)
	charges := 20 + rng.Float64()*100
	calls := float64(rng.Intn(8))
	contract := []float64{1, 12, 24}[rng.Intn(3)]

	z := -1.0 - 0.06*tenure + 0.025*(charges-70) + 0.35*calls - 0.08*contract
	pChurn := 1 / (1 + math.Exp(-z))
	churn := 0
	if rng.Float64() < pChurn {
		churn = 1
	}

	return []string{
		strconv.FormatFloat(tenure, 'f', 0, 64),
		strconv.FormatFloat(charges, 'f', 2, 64),
		strconv.FormatFloat(calls, 'f', 0, 64),
		strconv.FormatFloat(contract, 'f', 0, 64),
		strconv.Itoa(churn),
	}
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Sync()
}
