package automl

import (
	"encoding/json"
	"strings"

	"goanalyst/domain/core"
	"goanalyst/internal/errors"

	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export serializes a model to a self-contained document. An empty format
// means JSON.
func Export(model *TrainedModel, format string) (string, error) {
	if model == nil {
		return "", errors.InvalidInput("model is required")
	}
	switch normalizeFormat(format) {
	case FormatJSON:
		out, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to encode model as JSON")
		}
		return string(out), nil
	case FormatYAML:
		out, err := yaml.Marshal(model)
		if err != nil {
			return "", errors.Wrap(err, "failed to encode model as YAML")
		}
		return string(out), nil
	}
	return "", errors.Unsupported("export format", format, core.ErrUnsupportedExportFormat)
}

// Import rebuilds a model from Export output and checks that it can predict.
// An ID that is not a UUID is cleared; callers assign a fresh one.
func Import(data, format string) (*TrainedModel, error) {
	model := &TrainedModel{}
	switch normalizeFormat(format) {
	case FormatJSON:
		if err := json.Unmarshal([]byte(data), model); err != nil {
			return nil, errors.InvalidInputf("model document is not valid JSON: %v", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(data), model); err != nil {
			return nil, errors.InvalidInputf("model document is not valid YAML: %v", err)
		}
	default:
		return nil, errors.Unsupported("export format", format, core.ErrUnsupportedExportFormat)
	}

	if model.ID != "" {
		id, err := core.ParseModelID(string(model.ID))
		if err != nil {
			id = ""
		}
		model.ID = id
	}
	if !model.ProblemType.Valid() {
		return nil, errors.InvalidInputf("model has unknown problem type %q", model.ProblemType)
	}
	if len(model.Features) == 0 {
		return nil, errors.InvalidInput("model has no features")
	}
	if model.ProblemType == Classification && len(model.Classes) < 2 {
		return nil, errors.InvalidInput("classification model needs at least 2 class labels")
	}
	if _, err := restore(model.Algorithm, model.ProblemType, model.Params, len(model.Features), len(model.Classes)); err != nil {
		return nil, err
	}
	return model, nil
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return FormatJSON
	case FormatYAML, "yml":
		return FormatYAML
	}
	return format
}
