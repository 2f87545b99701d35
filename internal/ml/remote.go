package ml

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// RemoteModel delegates fitting and scoring to an HTTP scoring service, for
// classifiers (tree ensembles, boosted trees, kernel machines) that live
// outside this process.
type RemoteModel struct {
	name string
	base string
	rest *resty.Client
}

type fitRequest struct {
	Model    string      `json:"model"`
	Features [][]float64 `json:"features"`
	Labels   []int       `json:"labels"`
}

type predictRequest struct {
	Model    string      `json:"model"`
	Features [][]float64 `json:"features"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRemoteModel creates an adapter for the model called name on the service
// at baseURL.
func NewRemoteModel(name, baseURL string, timeout time.Duration) *RemoteModel {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	r.SetHeader("Content-Type", "application/json")

	return &RemoteModel{
		name: name,
		base: strings.TrimRight(baseURL, "/"),
		rest: r,
	}
}

// Fit posts the training set to {base}/fit.
func (m *RemoteModel) Fit(features *mat.Dense, labels []int) error {
	errResp := &errorResponse{}
	resp, err := m.rest.R().
		SetBody(fitRequest{Model: m.name, Features: denseRows(features), Labels: labels}).
		SetError(errResp).
		Post(m.base + "/fit")
	if err != nil {
		return fmt.Errorf("fit request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fit: status %d: %s", resp.StatusCode(), errorText(errResp.Error, resp))
	}

	log.Debug().Str("model", m.name).Str("url", m.base).Dur("elapsed", resp.Time()).Msg("Remote model fitted")
	return nil
}

// PredictProbability posts the features to {base}/predict and validates the
// returned probabilities.
func (m *RemoteModel) PredictProbability(features *mat.Dense) ([]float64, error) {
	rows := denseRows(features)

	result := &predictResponse{}
	errResp := &errorResponse{}
	resp, err := m.rest.R().
		SetBody(predictRequest{Model: m.name, Features: rows}).
		SetResult(result).
		SetError(errResp).
		Post(m.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("predict: status %d: %s", resp.StatusCode(), errorText(errResp.Error, resp))
	}
	if result.Error != "" {
		return nil, fmt.Errorf("remote inference error: %s", result.Error)
	}

	if len(result.Probabilities) != len(rows) {
		return nil, fmt.Errorf("expected %d probabilities, got %d", len(rows), len(result.Probabilities))
	}
	for i, p := range result.Probabilities {
		if p < 0 || p > 1 || p != p {
			return nil, fmt.Errorf("invalid probability %d: %f", i, p)
		}
	}

	return result.Probabilities, nil
}

func errorText(msg string, resp *resty.Response) string {
	if msg != "" {
		return msg
	}
	return resp.String()
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
