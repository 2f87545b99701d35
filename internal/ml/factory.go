package ml

import (
	"fmt"

	"churn-profit/internal/cfg"
	"churn-profit/internal/common"
)

// FromConfig builds the model described by c.
func FromConfig(c cfg.ModelConfig) (NamedModel, error) {
	var model Model
	switch c.Type {
	case common.ModelTypeLogistic:
		model = NewLogisticModel(c.LearningRate, c.Iterations, c.L2)
	case common.ModelTypePrior:
		model = &PriorModel{}
	case common.ModelTypeRemote:
		if c.URL == "" {
			return NamedModel{}, fmt.Errorf("model %s: remote models need a url", c.Name)
		}
		model = NewRemoteModel(c.Name, c.URL, c.Timeout)
	default:
		return NamedModel{}, fmt.Errorf("model %s: unknown type %q", c.Name, c.Type)
	}
	return NamedModel{ID: c.Name, Model: model}, nil
}

// FromConfigs builds every configured model, in order.
func FromConfigs(configs []cfg.ModelConfig) ([]NamedModel, error) {
	models := make([]NamedModel, 0, len(configs))
	for _, c := range configs {
		nm, err := FromConfig(c)
		if err != nil {
			return nil, err
		}
		models = append(models, nm)
	}
	return models, nil
}
