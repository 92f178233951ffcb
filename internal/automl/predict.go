package automl

import (
	"fmt"

	"goanalyst/adapters/stats/timeseries"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"
	"goanalyst/internal/narrative"
)

// Predict scores one input row. Features absent from values (or null) take
// the model's fill value; keys the model does not use are ignored.
//
// Classification confidence is the winning class probability. Regression
// confidence is 1 - RMSE/σ(target) clamped to [0, 1], and the interval is
// ±1.96·RMSE around the estimate.
func Predict(model *TrainedModel, values map[string]interface{}) (*PredictionResult, error) {
	if model == nil {
		return nil, errors.InvalidInput("model is required")
	}
	l, err := restore(model.Algorithm, model.ProblemType, model.Params, len(model.Features), len(model.Classes))
	if err != nil {
		return nil, err
	}
	if len(model.Scaler.Means) != len(model.Features) || len(model.Scaler.StdDevs) != len(model.Features) {
		return nil, errors.InvalidInput("model scaler does not match its features")
	}

	res := &PredictionResult{Contributions: make(map[string]float64, len(model.Features))}
	x := make([]float64, len(model.Features))
	for j, name := range model.Features {
		v := dataset.ValueOf(values[name])
		if v.IsNull() {
			x[j] = model.FillValues[name]
			res.Imputed = append(res.Imputed, name)
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, errors.InvalidInputf("feature %q must be numeric, got %q", name, v.String())
		}
		x[j] = f
	}
	z := model.Scaler.transform(x)

	var outcome string
	switch model.ProblemType {
	case Classification:
		probs := l.proba(z)
		if len(probs) != len(model.Classes) {
			return nil, errors.InvalidInput("model class labels do not match its parameters")
		}
		best := argmax(probs)
		res.Value = float64(best)
		res.Label = model.Classes[best]
		res.Confidence = probs[best]
		res.Probabilities = make(map[string]float64, len(probs))
		for c, p := range probs {
			res.Probabilities[model.Classes[c]] = p
		}
		outcome = res.Label
	case Regression:
		res.Value = l.predict(z)
		rmse := model.Metrics[MetricRMSE]
		half := timeseries.ConfidenceZ * rmse
		res.Interval = &Interval{Lower: res.Value - half, Upper: res.Value + half}
		res.Confidence = regressionConfidence(rmse, model.TargetStd)
		outcome = fmt.Sprintf("%.3f", res.Value)
	default:
		return nil, errors.InvalidInputf("unknown problem type %q", model.ProblemType)
	}

	parts := contributions(l, model, z)
	explained := make([]narrative.Contribution, len(parts))
	for j, name := range model.Features {
		res.Contributions[name] = parts[j]
		explained[j] = narrative.Contribution{Feature: name, Value: parts[j]}
	}
	res.Explanation = narrative.Prediction(model.Target, outcome, res.Confidence, explained)
	return res, nil
}

// contributions is β·z for linear models and importance·z otherwise
func contributions(l learner, model *TrainedModel, z []float64) []float64 {
	if lin, ok := l.(*linearModel); ok {
		return lin.contributions(z)
	}
	out := make([]float64, len(z))
	for j, name := range model.Features {
		out[j] = model.FeatureImportance[name] * z[j]
	}
	return out
}

func regressionConfidence(rmse, targetStd float64) float64 {
	if targetStd <= 0 {
		if rmse == 0 {
			return 1
		}
		return 0
	}
	c := 1 - rmse/targetStd
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
