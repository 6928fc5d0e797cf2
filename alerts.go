package main

import "fmt"

const defaultAlertThreshold = 0.7

// ShouldAlert reports whether a predicted risk probability crosses the
// threshold. The boundary is inclusive: exactly threshold alerts.
func ShouldAlert(probability, threshold float64) bool {
	return probability >= threshold
}

// BuildAlertPayload derives the alert from an already-validated result.
// No side effects; callers decide whether to carry it anywhere.
func BuildAlertPayload(features StudentFeatures, result PredictionResult) AlertPayload {
	return AlertPayload{
		Message:        fmt.Sprintf("Student risk probability is %.2f", result.Probability),
		Prediction:     result.Prediction,
		Features:       features.ToMap(),
		Counterfactual: result.Counterfactual,
	}
}
