package main

import (
	"strings"
	"testing"
)

func TestShouldAlertThresholdIsInclusive(t *testing.T) {
	if ShouldAlert(0.69999, defaultAlertThreshold) {
		t.Fatal("expected 0.69999 to stay below the threshold")
	}
	if !ShouldAlert(0.7, defaultAlertThreshold) {
		t.Fatal("expected exactly 0.7 to alert")
	}
	if !ShouldAlert(1.0, defaultAlertThreshold) {
		t.Fatal("expected 1.0 to alert")
	}
}

func TestBuildAlertPayload(t *testing.T) {
	features := StudentFeatures{AttendancePct: 40, AvgQuizScore: 35}
	result := PredictionResult{
		Prediction:  RiskAtRisk,
		Probability: 0.81,
		Counterfactual: CounterfactualExample{
			Change:         "raise attendance_pct to 90",
			NewProbability: 0.3,
		},
	}

	alert := BuildAlertPayload(features, result)

	if alert.Message != "Student risk probability is 0.81" {
		t.Fatalf("unexpected message: %q", alert.Message)
	}
	if alert.Prediction != RiskAtRisk {
		t.Fatalf("unexpected prediction: %s", alert.Prediction)
	}
	if alert.Features["attendance_pct"] != 40 {
		t.Fatalf("expected original features in alert, got %v", alert.Features)
	}
	if alert.Counterfactual.Change != "raise attendance_pct to 90" {
		t.Fatalf("expected counterfactual in alert, got %+v", alert.Counterfactual)
	}
}

func TestFormatAlertMessage(t *testing.T) {
	alert := AlertPayload{
		Message:    "Student risk probability is 0.75",
		Prediction: RiskAtRisk,
		Features:   StudentFeatures{AttendancePct: 40}.ToMap(),
		Counterfactual: CounterfactualExample{
			Change:         "study 10 hours per week",
			NewProbability: 0.4,
		},
	}

	msg := formatAlertMessage(alert)

	if !strings.Contains(msg, "Student risk probability is 0.75") {
		t.Fatalf("message missing summary: %q", msg)
	}
	if !strings.Contains(msg, "attendance_pct: 40") {
		t.Fatalf("message missing features: %q", msg)
	}
	if !strings.Contains(msg, "study 10 hours per week") {
		t.Fatalf("message missing counterfactual: %q", msg)
	}
}
