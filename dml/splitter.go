package dml

import (
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/godml/pkg/errors"
)

// Fold is one train/test split of row indices. Test sets of the folds of a
// repetition partition the full index set; training sets never overlap their
// own test set, except in the single-fold degenerate partition where both
// cover all rows (no cross-fitting).
type Fold struct {
	Train []int
	Test  []int
}

// KFolds draws reps independent partitions of n row indices into k disjoint
// folds whose sizes differ by at most one. Each repetition shuffles with its
// own PCG stream derived from (seed, repetition), so partitions are
// reproducible and repetitions are independent.
//
// k == 1 produces the degenerate no-cross-fitting partition with
// train == test == all rows.
func KFolds(n, k, reps int, seed int64) ([][]Fold, error) {
	if n < 1 {
		return nil, errors.NewValidationError("n", "must be positive", n)
	}
	if k < 1 {
		return nil, errors.NewValidationError("folds", "must be at least 1", k)
	}
	if k > n {
		return nil, errors.NewValidationError("folds", "cannot exceed the number of observations", k)
	}
	if reps < 1 {
		return nil, errors.NewValidationError("repetitions", "must be at least 1", reps)
	}

	if k == 1 {
		return degeneratePartition(n, reps), nil
	}

	out := make([][]Fold, reps)
	for r := 0; r < reps; r++ {
		rng := rand.New(rand.NewPCG(uint64(seed), uint64(r)))
		perm := rng.Perm(n)

		out[r] = make([]Fold, k)
		base := n / k
		rem := n % k
		offset := 0
		for i := 0; i < k; i++ {
			size := base
			if i < rem {
				size++
			}
			test := make([]int, size)
			copy(test, perm[offset:offset+size])
			offset += size
			out[r][i] = Fold{Test: test}
		}
		fillTrainSets(out[r], n)
	}
	return out, nil
}

// ClusterKFolds draws reps partitions that keep whole clusters inside a
// single fold: the clusters are shuffled and split into k near-equal groups,
// and every row follows its cluster. Fold sizes are near-equal in clusters,
// not in rows.
func ClusterKFolds(clusters []int, k, reps int, seed int64) ([][]Fold, error) {
	n := len(clusters)
	if n < 1 {
		return nil, errors.NewValidationError("clusters", "must not be empty", n)
	}
	if k < 1 {
		return nil, errors.NewValidationError("folds", "must be at least 1", k)
	}
	if reps < 1 {
		return nil, errors.NewValidationError("repetitions", "must be at least 1", reps)
	}

	ids := uniqueInts(clusters)
	if k > len(ids) {
		return nil, errors.NewValidationError("folds", "cannot exceed the number of clusters", k)
	}

	if k == 1 {
		return degeneratePartition(n, reps), nil
	}

	// Row indices per cluster, clusters in ascending ID order.
	rowsByCluster := make(map[int][]int, len(ids))
	for i, c := range clusters {
		rowsByCluster[c] = append(rowsByCluster[c], i)
	}

	out := make([][]Fold, reps)
	for r := 0; r < reps; r++ {
		rng := rand.New(rand.NewPCG(uint64(seed), uint64(r)))
		shuffled := make([]int, len(ids))
		copy(shuffled, ids)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		out[r] = make([]Fold, k)
		base := len(ids) / k
		rem := len(ids) % k
		offset := 0
		for i := 0; i < k; i++ {
			size := base
			if i < rem {
				size++
			}
			var test []int
			for _, c := range shuffled[offset : offset+size] {
				test = append(test, rowsByCluster[c]...)
			}
			sort.Ints(test)
			offset += size
			out[r][i] = Fold{Test: test}
		}
		fillTrainSets(out[r], n)
	}
	return out, nil
}

// degeneratePartition builds the k == 1 partition: every repetition holds a
// single fold with train == test == all rows.
func degeneratePartition(n, reps int) [][]Fold {
	out := make([][]Fold, reps)
	for r := 0; r < reps; r++ {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		train := make([]int, n)
		copy(train, all)
		out[r] = []Fold{{Train: train, Test: all}}
	}
	return out
}

// fillTrainSets completes each fold's training set as the complement of its
// test set.
func fillTrainSets(folds []Fold, n int) {
	for i := range folds {
		inTest := make([]bool, n)
		for _, idx := range folds[i].Test {
			inTest[idx] = true
		}
		train := make([]int, 0, n-len(folds[i].Test))
		for idx := 0; idx < n; idx++ {
			if !inTest[idx] {
				train = append(train, idx)
			}
		}
		folds[i].Train = train
	}
}

// uniqueInts returns the distinct values of xs in ascending order.
func uniqueInts(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}

// validateSampleSplitting checks externally supplied folds: every repetition
// must carry the same number of folds, and the test sets of a repetition must
// partition 0..n-1 exactly. With a single fold per repetition both train and
// test must cover all rows (the no-cross-fitting partition); with two or more
// folds a fold's training set must be non-empty and disjoint from its test
// set.
func validateSampleSplitting(folds [][]Fold, n int) error {
	const op = "dml.SetSampleSplitting"

	if len(folds) == 0 {
		return errors.NewValueError(op, "at least one repetition is required")
	}
	k := len(folds[0])
	if k == 0 {
		return errors.NewValueError(op, "at least one fold per repetition is required")
	}

	for r, rep := range folds {
		if len(rep) != k {
			return errors.NewValueError(op, "all repetitions must have the same number of folds")
		}

		counts := make([]int, n)
		for _, fold := range rep {
			for _, idx := range fold.Test {
				if idx < 0 || idx >= n {
					return errors.NewValueError(op, "test index out of range")
				}
				counts[idx]++
			}
		}
		for idx, c := range counts {
			if c != 1 {
				return errors.Newf("%s: test sets of repetition %d do not partition the index set (row %d appears %d times)", op, r, idx, c)
			}
		}

		if k == 1 {
			if len(rep[0].Train) != n {
				return errors.NewValueError(op, "a single-fold repetition must train on all rows")
			}
			continue
		}
		for f, fold := range rep {
			if len(fold.Train) == 0 {
				return errors.Newf("%s: fold %d of repetition %d has an empty training set", op, f, r)
			}
			inTest := make(map[int]bool, len(fold.Test))
			for _, idx := range fold.Test {
				inTest[idx] = true
			}
			for _, idx := range fold.Train {
				if idx < 0 || idx >= n {
					return errors.NewValueError(op, "train index out of range")
				}
				if inTest[idx] {
					return errors.Newf("%s: fold %d of repetition %d trains on its own test rows", op, f, r)
				}
			}
		}
	}
	return nil
}
