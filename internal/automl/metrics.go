package automl

import "math"

// Metric names used in TrainedModel.Metrics
const (
	MetricAccuracy  = "accuracy"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1        = "f1"
	MetricR2        = "r2"
	MetricRMSE      = "rmse"
	MetricMAE       = "mae"
)

// selectionMetric is the metric candidates compete on; higher is better
func selectionMetric(problem ProblemType) string {
	if problem == Classification {
		return MetricAccuracy
	}
	return MetricR2
}

// RegressionMetrics returns R², RMSE and MAE. R² of a constant truth is 1
// for a perfect fit and 0 otherwise.
func RegressionMetrics(yTrue, yPred []float64) map[string]float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return map[string]float64{MetricR2: 0, MetricRMSE: 0, MetricMAE: 0}
	}
	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= n

	ssTot, ssRes, abs := 0.0, 0.0, 0.0
	for i, v := range yTrue {
		d := v - mean
		ssTot += d * d
		r := v - yPred[i]
		ssRes += r * r
		abs += math.Abs(r)
	}

	r2 := 0.0
	switch {
	case ssTot > 0:
		r2 = 1 - ssRes/ssTot
	case ssRes < 1e-12:
		r2 = 1
	}
	return map[string]float64{
		MetricR2:   r2,
		MetricRMSE: math.Sqrt(ssRes / n),
		MetricMAE:  abs / n,
	}
}

// ClassificationMetrics returns accuracy, precision, recall and F1. With two
// classes precision and recall are for class 1; otherwise they are
// macro-averaged over all classes. An empty denominator scores 0.
func ClassificationMetrics(yTrue, yPred []int, classes int) map[string]float64 {
	n := len(yTrue)
	if n == 0 {
		return map[string]float64{MetricAccuracy: 0, MetricPrecision: 0, MetricRecall: 0, MetricF1: 0}
	}
	tp := make([]float64, classes)
	fp := make([]float64, classes)
	fn := make([]float64, classes)
	correct := 0
	for i, t := range yTrue {
		p := yPred[i]
		if p == t {
			correct++
			tp[t]++
			continue
		}
		fp[p]++
		fn[t]++
	}

	precision, recall, f1 := 0.0, 0.0, 0.0
	if classes == 2 {
		precision = ratio(tp[1], tp[1]+fp[1])
		recall = ratio(tp[1], tp[1]+fn[1])
		f1 = harmonic(precision, recall)
	} else {
		for c := 0; c < classes; c++ {
			pc := ratio(tp[c], tp[c]+fp[c])
			rc := ratio(tp[c], tp[c]+fn[c])
			precision += pc
			recall += rc
			f1 += harmonic(pc, rc)
		}
		k := float64(classes)
		precision, recall, f1 = precision/k, recall/k, f1/k
	}
	return map[string]float64{
		MetricAccuracy:  float64(correct) / float64(n),
		MetricPrecision: precision,
		MetricRecall:    recall,
		MetricF1:        f1,
	}
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func harmonic(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
