package automl

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"goanalyst/adapters/stats/correlation"
	"goanalyst/domain/core"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"
	"goanalyst/internal/narrative"
)

var (
	treeDepths   = []int{2, 3, 4, 5, 6, 8}
	treeMinLeafs = []int{1, 2, 4}
	knnKs        = []int{1, 3, 5, 7, 9, 11, 15}
)

const logisticIterations = 300

// Train fits every candidate for the problem type on a seeded 80/20 split,
// keeps the one with the best validation score and cross-validates it.
// An empty problem type is detected from the target column.
func Train(ds *dataset.Dataset, target string, features []string, problem ProblemType, cfg Config) (*TrainedModel, error) {
	started := time.Now()
	cfg = cfg.withDefaults()
	cfg.enter(StageConfigured)

	if problem == "" {
		detected, err := DetermineProblemType(ds, target)
		if err != nil {
			return nil, err
		}
		problem = detected
	}
	if !problem.Valid() {
		return nil, errors.InvalidInputf("unknown problem type %q", problem)
	}
	algorithms, err := allowedAlgorithms(problem, cfg.Algorithms)
	if err != nil {
		return nil, err
	}

	cfg.enter(StagePreprocessing)
	d, err := preprocess(ds, target, features, problem, cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range d.warnings {
		cfg.Logger.Warn("%s", w)
	}

	cfg.enter(StageTraining)
	trainIdx, validIdx := trainValidationSplit(d.rows(), cfg.ValidationFraction, cfg.Seed)
	xTrain, yTrain := selectRows(d.z, d.y, trainIdx)
	xValid, yValid := selectRows(d.z, d.y, validIdx)
	metricName := selectionMetric(problem)

	cands := candidates(problem, algorithms, len(d.classes), len(trainIdx), cfg)
	var (
		best        learner
		bestCand    candidate
		bestMetrics map[string]float64
		bestIndex   = -1
		scores      = make([]CandidateScore, 0, len(cands))
	)
	for _, c := range cands {
		l := c.build()
		t0 := time.Now()
		if err := l.fit(xTrain, yTrain); err != nil {
			cfg.Logger.Warn("candidate %s %v failed: %v", c.algorithm, c.hyper, err)
			continue
		}
		elapsed := time.Since(t0)
		metrics := evaluate(l, xValid, yValid, problem, len(d.classes))
		score := metrics[metricName]
		cfg.Logger.Debug("candidate %s %v: %s=%.4f in %s", c.algorithm, c.hyper, metricName, score, elapsed)

		scores = append(scores, CandidateScore{
			Algorithm:       c.algorithm,
			Hyperparameters: l.hyperparameters(),
			Score:           score,
			Duration:        elapsed,
		})
		if bestIndex < 0 || better(score, elapsed, bestMetrics[metricName], scores[bestIndex].Duration) {
			best, bestCand, bestMetrics, bestIndex = l, c, metrics, len(scores)-1
		}
	}
	if best == nil {
		return nil, errors.InternalError("no candidate model could be fitted")
	}
	scores[bestIndex].Selected = true

	cfg.enter(StageEvaluated)
	cvScore, folds := crossValidate(bestCand, d, problem, metricName, cfg)

	weights := best.importance()
	if weights == nil {
		weights = permutationImportance(best, d.z, d.y, problem, len(d.classes), metricName, cfg.Seed)
	}
	weights = normalize(weights)

	model := &TrainedModel{
		ID:                core.NewModelID(),
		Algorithm:         bestCand.algorithm,
		ProblemType:       problem,
		Target:            target,
		Features:          d.features,
		SkippedFeatures:   d.skipped,
		Classes:           d.classes,
		Params:            best.params(),
		Scaler:            d.scaler,
		Imputation:        cfg.Imputation,
		FillValues:        make(map[string]float64, len(d.features)),
		TargetStd:         d.targetStd,
		Metrics:           bestMetrics,
		SelectionMetric:   metricName,
		FeatureImportance: make(map[string]float64, len(d.features)),
		Hyperparameters:   best.hyperparameters(),
		CVScore:           cvScore,
		CVFolds:           folds,
		Candidates:        scores,
		TrainRows:         len(trainIdx),
		ValidationRows:    len(validIdx),
		Seed:              cfg.Seed,
		Warnings:          d.warnings,
		CreatedAt:         time.Now().UTC(),
	}
	for j, name := range d.features {
		model.FillValues[name] = d.fill[j]
		model.FeatureImportance[name] = weights[j]
	}
	if problem == Regression {
		model.TargetCorrelations = make(map[string]float64, len(d.features))
		for j, name := range d.features {
			column := make([]float64, len(d.raw))
			for i, row := range d.raw {
				column[i] = row[j]
			}
			model.TargetCorrelations[name] = correlation.Pearson(column, d.y)
		}
	}
	model.Summary = narrative.ModelSummary(string(model.Algorithm), string(problem), metricName, bestMetrics[metricName], model.TopFeature())
	model.TrainingDuration = time.Since(started)

	cfg.enter(StageReady)
	model.Stage = StageReady
	cfg.Logger.Info("trained %s for %s on %d rows: %s=%.4f cv=%.4f (%d folds) in %s",
		model.Algorithm, target, d.rows(), metricName, bestMetrics[metricName], cvScore, folds, model.TrainingDuration)
	return model, nil
}

// better reports whether a candidate beats the current best: higher score,
// then shorter training time. Equal candidates keep the earlier one.
func better(score float64, elapsed time.Duration, bestScore float64, bestElapsed time.Duration) bool {
	const eps = 1e-12
	if score > bestScore+eps {
		return true
	}
	if score < bestScore-eps {
		return false
	}
	return elapsed < bestElapsed
}

func allowedAlgorithms(problem ProblemType, requested []Algorithm) ([]Algorithm, error) {
	all := AlgorithmsFor(problem)
	if len(requested) == 0 {
		return all, nil
	}
	want := make(map[Algorithm]bool, len(requested))
	for _, a := range requested {
		ok := false
		for _, known := range all {
			if a == known {
				ok = true
			}
		}
		if !ok {
			return nil, errors.Unsupported(fmt.Sprintf("%s algorithm", problem), string(a), core.ErrUnsupportedAlgorithm)
		}
		want[a] = true
	}
	out := make([]Algorithm, 0, len(want))
	for _, a := range all {
		if want[a] {
			out = append(out, a)
		}
	}
	return out, nil
}

// candidates expands algorithms into concrete configurations in selection
// order. Tree depth, leaf size and k are drawn without replacement from
// fixed grids using the seed.
func candidates(problem ProblemType, algorithms []Algorithm, classes, trainRows int, cfg Config) []candidate {
	rng := rand.New(rand.NewSource(cfg.Seed))
	classification := problem == Classification
	var out []candidate
	for _, algo := range algorithms {
		switch algo {
		case AlgorithmLinear:
			out = append(out, candidate{algorithm: algo, build: func() learner { return &linearModel{} }})
		case AlgorithmLogistic:
			out = append(out, candidate{algorithm: algo, build: func() learner { return newLogistic(classes, logisticIterations) }})
		case AlgorithmDecisionTree:
			for _, i := range draw(rng, len(treeDepths), cfg.Trials) {
				depth := treeDepths[i]
				minLeaf := treeMinLeafs[rng.Intn(len(treeMinLeafs))]
				out = append(out, candidate{
					algorithm: algo,
					build:     func() learner { return newTree(classification, classes, depth, minLeaf) },
					hyper:     map[string]float64{"max_depth": float64(depth), "min_leaf": float64(minLeaf)},
				})
			}
		case AlgorithmKNN:
			var ks []int
			for _, k := range knnKs {
				if k <= trainRows {
					ks = append(ks, k)
				}
			}
			for _, i := range draw(rng, len(ks), cfg.Trials) {
				k := ks[i]
				out = append(out, candidate{
					algorithm: algo,
					build:     func() learner { return newKNN(classification, classes, k) },
					hyper:     map[string]float64{"k": float64(k)},
				})
			}
		}
	}
	return out
}

// draw picks up to n distinct indices of a grid of size, kept in grid order
func draw(rng *rand.Rand, size, n int) []int {
	perm := rng.Perm(size)
	if n < len(perm) {
		perm = perm[:n]
	}
	picked := make([]bool, size)
	for _, i := range perm {
		picked[i] = true
	}
	out := make([]int, 0, len(perm))
	for i, ok := range picked {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func evaluate(l learner, X [][]float64, y []float64, problem ProblemType, classes int) map[string]float64 {
	if problem == Classification {
		truth := make([]int, len(y))
		pred := make([]int, len(y))
		for i, x := range X {
			truth[i] = int(y[i])
			pred[i] = int(l.predict(x))
		}
		return ClassificationMetrics(truth, pred, classes)
	}
	pred := make([]float64, len(y))
	for i, x := range X {
		pred[i] = l.predict(x)
	}
	return RegressionMetrics(y, pred)
}

// crossValidate refits the winning configuration on k folds of all rows and
// returns the mean held-out score with the fold count. Fewer than two folds
// are not possible and score 0 with 0 folds.
func crossValidate(c candidate, d *design, problem ProblemType, metricName string, cfg Config) (float64, int) {
	folds := kFolds(d.rows(), cfg.CVFolds, cfg.Seed)
	if len(folds) < 2 {
		return 0, 0
	}
	total, used := 0.0, 0
	for _, fold := range folds {
		xTrain, yTrain := selectRows(d.z, d.y, complement(d.rows(), fold))
		xTest, yTest := selectRows(d.z, d.y, fold)
		l := c.build()
		if err := l.fit(xTrain, yTrain); err != nil {
			cfg.Logger.Warn("cross-validation fold failed: %v", err)
			continue
		}
		total += evaluate(l, xTest, yTest, problem, len(d.classes))[metricName]
		used++
	}
	if used == 0 {
		return 0, 0
	}
	return total / float64(used), used
}

// permutationImportance is the drop in score when one feature column is
// shuffled with the seed; negative drops count as 0
func permutationImportance(l learner, X [][]float64, y []float64, problem ProblemType, classes int, metricName string, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	base := evaluate(l, X, y, problem, classes)[metricName]
	out := make([]float64, len(X[0]))
	shuffled := make([][]float64, len(X))
	for j := range out {
		perm := rng.Perm(len(X))
		for i, row := range X {
			r := append([]float64(nil), row...)
			r[j] = X[perm[i]][j]
			shuffled[i] = r
		}
		if drop := base - evaluate(l, shuffled, y, problem, classes)[metricName]; drop > 0 {
			out[j] = drop
		}
	}
	return out
}

// normalize scales weights to sum to 1; all-zero weights split evenly
func normalize(weights []float64) []float64 {
	out := make([]float64, len(weights))
	total := 0.0
	for _, w := range weights {
		if !math.IsNaN(w) && w > 0 {
			total += w
		}
	}
	for j, w := range weights {
		switch {
		case total <= 0:
			out[j] = 1 / float64(len(weights))
		case !math.IsNaN(w) && w > 0:
			out[j] = w / total
		}
	}
	return out
}
