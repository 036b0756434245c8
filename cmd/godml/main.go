// Package main provides the entry point for the godml CLI.
//
// godml estimates causal treatment effects from CSV data by double/debiased
// machine learning, and generates simulated datasets to experiment with.
//
// Usage:
//
//	godml fit --study study.yaml
//	godml fit wages.csv --outcome earnings --treatments training
//	godml simulate --dataset jobtraining -n 2000 -o jobs.csv
//
// See --help for all available options.
package main

// main is the entry point for godml.
func main() {
	Execute()
}
