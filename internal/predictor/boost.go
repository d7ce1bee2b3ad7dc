package predictor

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BoostParams are the gradient boosting hyperparameters. Defaults mirror the
// fixed configuration used when grid search is disabled.
type BoostParams struct {
	NEstimators  int     `json:"n_estimators"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
}

var defaultParams = BoostParams{NEstimators: 100, LearningRate: 0.1, MaxDepth: 3}

// searchGrid is the hyperparameter grid explored with 5-fold cross validation.
var searchGrid = struct {
	NEstimators   []int
	LearningRates []float64
	MaxDepths     []int
}{
	NEstimators:   []int{50, 100, 200},
	LearningRates: []float64{0.01, 0.1, 0.2},
	MaxDepths:     []int{3, 4, 5},
}

// ensemble is a trained gradient-boosted regression forest plus the feature
// schema it was fitted against. It is immutable after fitting; the Predictor
// publishes new instances with an atomic pointer swap.
type ensemble struct {
	Columns      []string         `json:"columns"`
	Init         float64          `json:"init"`
	LearningRate float64          `json:"learning_rate"`
	MaxDepth     int              `json:"max_depth"`
	Trees        []regressionTree `json:"trees"`
}

func fitEnsemble(x [][]float64, y []float64, columns []string, params BoostParams) *ensemble {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}

	e := &ensemble{
		Columns:      columns,
		Init:         stat.Mean(y, nil),
		LearningRate: params.LearningRate,
		MaxDepth:     params.MaxDepth,
	}

	residuals := make([]float64, len(y))
	predictions := make([]float64, len(y))
	for i := range predictions {
		predictions[i] = e.Init
	}

	for round := 0; round < params.NEstimators; round++ {
		for i := range residuals {
			residuals[i] = y[i] - predictions[i]
		}
		tree := growTree(x, residuals, idx, params.MaxDepth)
		e.Trees = append(e.Trees, tree)
		for i := range predictions {
			predictions[i] += params.LearningRate * tree.predict(x[i])
		}
	}
	return e
}

func (e *ensemble) predictVector(x []float64) float64 {
	sum := e.Init
	for i := range e.Trees {
		sum += e.LearningRate * e.Trees[i].predict(x)
	}
	return sum
}

func meanSquaredError(predicted, observed []float64) float64 {
	sum := 0.0
	for i := range predicted {
		d := predicted[i] - observed[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

// crossValidateMSE runs k-fold cross validation for one parameter set and
// returns the mean fold MSE.
func crossValidateMSE(x [][]float64, y []float64, columns []string, params BoostParams, folds int) float64 {
	n := len(x)
	if folds > n {
		folds = n
	}
	foldSize := n / folds

	total := 0.0
	for fold := 0; fold < folds; fold++ {
		lo := fold * foldSize
		hi := lo + foldSize
		if fold == folds-1 {
			hi = n
		}

		var trainX [][]float64
		var trainY []float64
		for i := 0; i < n; i++ {
			if i >= lo && i < hi {
				continue
			}
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		}

		model := fitEnsemble(trainX, trainY, columns, params)
		predicted := make([]float64, 0, hi-lo)
		observed := make([]float64, 0, hi-lo)
		for i := lo; i < hi; i++ {
			predicted = append(predicted, model.predictVector(x[i]))
			observed = append(observed, y[i])
		}
		total += meanSquaredError(predicted, observed)
	}
	return total / float64(folds)
}

// gridSearch explores the full grid and returns the parameter set with the
// lowest cross-validated MSE.
func gridSearch(x [][]float64, y []float64, columns []string) BoostParams {
	best := defaultParams
	bestScore := math.Inf(1)
	for _, n := range searchGrid.NEstimators {
		for _, lr := range searchGrid.LearningRates {
			for _, depth := range searchGrid.MaxDepths {
				params := BoostParams{NEstimators: n, LearningRate: lr, MaxDepth: depth}
				score := crossValidateMSE(x, y, columns, params, 5)
				if score < bestScore {
					bestScore = score
					best = params
				}
			}
		}
	}
	return best
}
