// Package godml provides double/debiased machine learning for causal
// inference in Go, built for backend services that need treatment effect
// estimates with honest confidence intervals rather than raw predictions.
//
// godml estimates the causal parameter θ of the partially linear model
//
//	Y = θ·D + g(X) + ζ
//	D = m(X) + V
//
// where the nuisance functions g and m are fitted by machine learners with
// K-fold cross-fitting, and a Neyman-orthogonal score turns the out-of-fold
// residuals into an estimate that is first-order insensitive to nuisance
// estimation error.
//
// # Installation
//
// Install godml using go get:
//
//	go get github.com/YuminosukeSato/godml
//
// # Quick Start
//
// Estimate a treatment effect on simulated data:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/godml/core/model"
//	    "github.com/YuminosukeSato/godml/datasets"
//	    "github.com/YuminosukeSato/godml/dml"
//	    "github.com/YuminosukeSato/godml/learner"
//	)
//
//	func main() {
//	    ds, err := datasets.MakePLR(1000,
//	        datasets.WithEffect(0.5), datasets.WithCovariates(5))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    data, err := dml.NewDataFrom(ds, "y", []string{"d"},
//	        []string{"x1", "x2", "x3", "x4", "x5"})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    m, err := dml.NewPLR(data, dml.Learners{
//	        L: func() model.Learner { return learner.NewRidge() },
//	        M: func() model.Learner { return learner.NewRidge() },
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := m.Fit(); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Print(m.Summary())
//	}
//
// The same estimation is available from the command line:
//
//	godml simulate -n 1000 -o plr.csv
//	godml fit plr.csv --outcome y --treatments d
//
// # Packages
//
// The library is organized into several packages:
//
//   - dml: the estimation engine (data container, cross-fitting, scores,
//     analytic and bootstrap inference, joint confidence intervals)
//   - learner: nuisance learners (ridge, lasso, logistic, gradient boosting)
//   - datasets: column-oriented data container, CSV loading and writing,
//     simulated data generators with known true effects
//   - preprocessing: feature scaling and polynomial expansion
//   - metrics: regression and classification metrics
//   - core/model: learner contracts and estimator lifecycle management
//   - core/parallel: parallel processing utilities
//   - pkg/errors: structured errors with stack traces
//   - pkg/log: structured logging
//
// # Determinism
//
// Fold splitting, repetition aggregation and the multiplier bootstrap are
// deterministic given the configured seed: the same data, settings and seed
// reproduce every coefficient, standard error and bootstrap draw exactly,
// across machines.
//
// # License
//
// godml is released under the MIT License.
package godml
