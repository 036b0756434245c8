// Package dml estimates causal treatment effects in partially linear models
// by double/debiased machine learning.
//
// The partially linear model is
//
//	Y = θ·D + g(X) + ζ
//	D = m(X) + V
//
// where Y is the outcome, D the treatment, X the covariates and θ the causal
// parameter of interest. Machine learners estimate the nuisance functions
// (E[Y|X], E[D|X] and, for the IV-type score, E[Y−θD|X]) with K-fold
// cross-fitting, so every observation's nuisance prediction comes from a
// learner that never saw it. The out-of-fold residuals enter a
// Neyman-orthogonal score whose root is the estimate; orthogonality makes
// the estimate first-order insensitive to nuisance estimation error, which
// is what permits flexible, regularized learners in the first stage.
//
// A minimal session:
//
//	data, err := dml.NewData(y, d, x)
//	if err != nil { ... }
//	model, err := dml.NewPLR(data, dml.Learners{
//		L: func() model.Learner { return learner.NewRidge() },
//		M: func() model.Learner { return learner.NewRidge() },
//	})
//	if err != nil { ... }
//	if err := model.Fit(); err != nil { ... }
//	fmt.Println(model.Summary())
//
// Inference beyond the analytic standard errors is available through the
// multiplier bootstrap (Bootstrap) and simultaneous confidence intervals
// over several treatments (JointConfInt). Sample splitting, repetition
// aggregation and the bootstrap are all deterministic given the seed.
package dml
