package learner

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/godml/core/model"
	"github.com/YuminosukeSato/godml/core/parallel"
	"github.com/YuminosukeSato/godml/pkg/errors"
	"github.com/YuminosukeSato/godml/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Boosting implements least-squares gradient boosting with shallow
// regression trees. Each round fits a tree to the current residuals and the
// ensemble advances by a shrunken step. Row subsampling (stochastic gradient
// boosting) is seeded so repeated fits are reproducible.
//
// It is the nonparametric workhorse among the learners: unlike Ridge and
// Lasso it captures interactions and nonlinearities without feature
// engineering, at the cost of slower training.
type Boosting struct {
	state *model.StateManager

	// Hyperparameters
	rounds       int     // Number of boosting rounds
	learningRate float64 // Shrinkage applied to every tree
	maxDepth     int     // Maximum tree depth
	minLeaf      int     // Minimum samples per leaf
	subsample    float64 // Row subsampling fraction per round
	seed         int64   // Seed for the subsampling stream

	// Fitted parameters
	trees     []regressionTree
	initScore float64
	nFeatures int
}

var _ model.Regressor = (*Boosting)(nil)

// BoostingOption is a functional option for Boosting.
type BoostingOption func(*Boosting)

// WithBoostingRounds sets the number of boosting rounds.
func WithBoostingRounds(rounds int) BoostingOption {
	return func(b *Boosting) {
		b.rounds = rounds
	}
}

// WithBoostingLearningRate sets the shrinkage rate.
func WithBoostingLearningRate(lr float64) BoostingOption {
	return func(b *Boosting) {
		b.learningRate = lr
	}
}

// WithBoostingMaxDepth sets the maximum depth of each tree.
func WithBoostingMaxDepth(depth int) BoostingOption {
	return func(b *Boosting) {
		b.maxDepth = depth
	}
}

// WithBoostingMinLeaf sets the minimum number of samples per leaf.
func WithBoostingMinLeaf(minLeaf int) BoostingOption {
	return func(b *Boosting) {
		b.minLeaf = minLeaf
	}
}

// WithBoostingSubsample sets the fraction of rows drawn per round.
func WithBoostingSubsample(fraction float64) BoostingOption {
	return func(b *Boosting) {
		b.subsample = fraction
	}
}

// WithBoostingSeed sets the seed for the row subsampling stream.
func WithBoostingSeed(seed int64) BoostingOption {
	return func(b *Boosting) {
		b.seed = seed
	}
}

// NewBoosting creates a gradient boosting regressor with default parameters
// (100 rounds, learning rate 0.1, depth 3, 5 samples per leaf, no
// subsampling, seed 42).
func NewBoosting(opts ...BoostingOption) *Boosting {
	b := &Boosting{
		state:        model.NewStateManager(),
		rounds:       100,
		learningRate: 0.1,
		maxDepth:     3,
		minLeaf:      5,
		subsample:    1.0,
		seed:         42,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// treeNode is one node of a regression tree. Children are indices into the
// owning tree's node slice.
type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// regressionTree is a binary regression tree stored as an index-linked node
// slice. Node 0 is the root.
type regressionTree struct {
	nodes []treeNode
}

// predict walks the tree for one sample.
func (t *regressionTree) predict(x []float64) float64 {
	idx := 0
	for {
		node := t.nodes[idx]
		if node.leaf {
			return node.value
		}
		if x[node.feature] <= node.threshold {
			idx = node.left
		} else {
			idx = node.right
		}
	}
}

// Fit trains the ensemble on X (n×k) and the target column y (n×1).
func (b *Boosting) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures, err := validateTrainingData("Boosting.Fit", X, y)
	if err != nil {
		return err
	}
	if b.rounds < 1 {
		return errors.NewValidationError("rounds", "must be at least 1", b.rounds)
	}
	if b.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", b.learningRate)
	}
	if b.maxDepth < 1 {
		return errors.NewValidationError("max_depth", "must be at least 1", b.maxDepth)
	}
	if b.minLeaf < 1 {
		return errors.NewValidationError("min_leaf", "must be at least 1", b.minLeaf)
	}
	if b.subsample <= 0 || b.subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", b.subsample)
	}

	// Copy the data once so tree building never touches the caller's matrix.
	rows := make([][]float64, nSamples)
	target := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		rows[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			rows[i][j] = X.At(i, j)
		}
		target[i] = y.At(i, 0)
	}

	b.nFeatures = nFeatures
	b.initScore = meanFloat64(target)
	b.trees = make([]regressionTree, 0, b.rounds)

	predictions := make([]float64, nSamples)
	for i := range predictions {
		predictions[i] = b.initScore
	}
	residuals := make([]float64, nSamples)

	rng := rand.New(rand.NewPCG(uint64(b.seed), uint64(b.seed)))
	logger := log.GetLoggerWithName("learner.boosting")

	for round := 0; round < b.rounds; round++ {
		for i := 0; i < nSamples; i++ {
			residuals[i] = target[i] - predictions[i]
		}

		indices := b.sampleRows(rng, nSamples)
		tree := regressionTree{}
		b.buildNode(&tree, rows, residuals, indices, 0)
		b.trees = append(b.trees, tree)

		for i := 0; i < nSamples; i++ {
			predictions[i] += b.learningRate * tree.predict(rows[i])
		}

		if (round+1)%50 == 0 || round == b.rounds-1 {
			sse := 0.0
			for i := 0; i < nSamples; i++ {
				d := target[i] - predictions[i]
				sse += d * d
			}
			logger.Debug("boosting progress",
				log.IterationKey, round+1,
				log.RMSEKey, math.Sqrt(sse/float64(nSamples)))
		}
	}

	if err := errors.CheckScalar("Boosting.Fit", b.initScore, b.rounds); err != nil {
		return err
	}

	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()
	return nil
}

// sampleRows draws the training rows for one round, without replacement.
func (b *Boosting) sampleRows(rng *rand.Rand, nSamples int) []int {
	if b.subsample >= 1.0 {
		indices := make([]int, nSamples)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	m := int(b.subsample * float64(nSamples))
	if m < 1 {
		m = 1
	}
	perm := rng.Perm(nSamples)
	indices := make([]int, m)
	copy(indices, perm[:m])
	return indices
}

// buildNode recursively grows the tree and returns the new node's index.
func (b *Boosting) buildNode(tree *regressionTree, rows [][]float64, residuals []float64, indices []int, depth int) int {
	nodeIdx := len(tree.nodes)
	tree.nodes = append(tree.nodes, treeNode{leaf: true, value: meanResiduals(residuals, indices)})

	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		return nodeIdx
	}

	split, ok := b.findBestSplit(rows, residuals, indices)
	if !ok {
		return nodeIdx
	}

	leftIdx, rightIdx := splitIndices(rows, indices, split.feature, split.threshold)
	left := b.buildNode(tree, rows, residuals, leftIdx, depth+1)
	right := b.buildNode(tree, rows, residuals, rightIdx, depth+1)

	tree.nodes[nodeIdx] = treeNode{
		feature:   split.feature,
		threshold: split.threshold,
		left:      left,
		right:     right,
	}
	return nodeIdx
}

// splitCandidate holds the best split found for a node.
type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
}

// findBestSplit scans all features for the split with the largest squared
// error reduction. With unit hessians the gain is GL²/nL + GR²/nR − G²/n,
// where G sums the residuals on each side.
func (b *Boosting) findBestSplit(rows [][]float64, residuals []float64, indices []int) (splitCandidate, bool) {
	best := splitCandidate{gain: 0}
	found := false
	nFeatures := len(rows[0])

	totalGrad := 0.0
	for _, idx := range indices {
		totalGrad += residuals[idx]
	}
	total := float64(len(indices))
	baseScore := totalGrad * totalGrad / total

	type valueGrad struct {
		value float64
		grad  float64
	}
	pairs := make([]valueGrad, len(indices))

	for feature := 0; feature < nFeatures; feature++ {
		for i, idx := range indices {
			pairs[i] = valueGrad{value: rows[idx][feature], grad: residuals[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		leftGrad := 0.0
		for i := 0; i < len(pairs)-1; i++ {
			leftGrad += pairs[i].grad
			nLeft := i + 1
			nRight := len(pairs) - nLeft
			if nLeft < b.minLeaf || nRight < b.minLeaf {
				continue
			}
			// No split between identical values.
			if pairs[i].value == pairs[i+1].value {
				continue
			}

			rightGrad := totalGrad - leftGrad
			gain := leftGrad*leftGrad/float64(nLeft) + rightGrad*rightGrad/float64(nRight) - baseScore
			if gain > best.gain {
				best = splitCandidate{
					feature:   feature,
					threshold: (pairs[i].value + pairs[i+1].value) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}

	return best, found
}

// splitIndices partitions indices by the given feature threshold.
func splitIndices(rows [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if rows[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// meanResiduals computes the mean residual over the given indices.
func meanResiduals(residuals []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range indices {
		sum += residuals[idx]
	}
	return sum / float64(len(indices))
}

// meanFloat64 computes the arithmetic mean of values.
func meanFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Predict returns the ensemble prediction for each row of X as an n×1 matrix.
func (b *Boosting) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !b.state.IsFitted() {
		return nil, errors.NewNotFittedError("Boosting", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != b.nFeatures {
		return nil, errors.NewDimensionError("Boosting.Predict", b.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	const parallelThreshold = 200
	parallel.ParallelizeWithThreshold(nSamples, parallelThreshold, func(start, end int) {
		x := make([]float64, nFeatures)
		for i := start; i < end; i++ {
			for j := 0; j < nFeatures; j++ {
				x[j] = X.At(i, j)
			}
			pred := b.initScore
			for t := range b.trees {
				pred += b.learningRate * b.trees[t].predict(x)
			}
			predictions.Set(i, 0, pred)
		}
	})

	return predictions, nil
}

// Score returns the coefficient of determination R² on the given data.
func (b *Boosting) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := b.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2FromPredictions("Boosting.Score", y, yPred)
}

// NTrees returns the number of fitted trees.
func (b *Boosting) NTrees() int {
	return len(b.trees)
}

// InitScore returns the base prediction the ensemble starts from.
func (b *Boosting) InitScore() float64 {
	return b.initScore
}

// IsFitted reports whether Fit has completed successfully.
func (b *Boosting) IsFitted() bool {
	return b.state.IsFitted()
}

// Reset returns the model to its unfitted state.
func (b *Boosting) Reset() {
	b.state.Reset()
	b.trees = nil
	b.initScore = 0
	b.nFeatures = 0
}

// GetParams returns the model's hyperparameters.
func (b *Boosting) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"rounds":        b.rounds,
		"learning_rate": b.learningRate,
		"max_depth":     b.maxDepth,
		"min_leaf":      b.minLeaf,
		"subsample":     b.subsample,
		"seed":          b.seed,
	}
}

// String returns a short description of the model.
func (b *Boosting) String() string {
	return fmt.Sprintf("Boosting(rounds=%d, learning_rate=%g, max_depth=%d)", b.rounds, b.learningRate, b.maxDepth)
}
