// Package learner provides the supervised learners used to estimate nuisance
// functions in double machine learning.
//
// Every learner satisfies the model.Learner contract (Fit on a feature matrix
// and a single-column target, Predict on new rows) so the estimation engine in
// package dml can treat them interchangeably. Learners intended for binary
// treatments additionally implement model.ProbabilityPredictor.
//
// The package ships four learners:
//
//   - Ridge: L2-penalized least squares, solved in closed form. The default
//     choice for outcome and treatment regressions.
//   - Lasso: L1-penalized least squares via coordinate descent, for sparse
//     high-dimensional nuisance functions.
//   - Logistic: binary logistic regression with PredictProba, for propensity
//     estimation with binary treatments.
//   - Boosting: least-squares gradient boosting over depth-limited regression
//     trees, the flexible nonparametric option.
//
// Learners are handed to the engine as factories so that every fold of every
// repetition fits a fresh instance:
//
//	learners := dml.Learners{
//	    L: func() model.Learner { return learner.NewRidge() },
//	    M: func() model.Learner { return learner.NewLogistic() },
//	}
package learner
