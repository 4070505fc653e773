package engine

import (
	"reflect"
	"testing"

	"knowledge-chat-be/pkg/plan"
)

func sampleRecords() map[string]GroupExecutionRecord {
	return map[string]GroupExecutionRecord{
		"g1": {
			Mode: plan.ModeParallel,
			Results: []plan.ActionResult{
				{Type: plan.ActionSearchKnowledge, Succeeded: true, ElapsedSeconds: 0.5},
				{Type: plan.ActionListDocuments, Succeeded: false, Error: "document store: timeout", ElapsedSeconds: 2.25},
			},
			ResultCount: 2,
		},
		"g2": {
			Mode: plan.ModeSequential,
			Results: []plan.ActionResult{
				{Type: plan.ActionRespondDirectly, Succeeded: true, ElapsedSeconds: 0.0},
			},
			ResultCount: 1,
		},
	}
}

func TestAggregateCounts(t *testing.T) {
	bundle := Aggregate(sampleRecords())

	if bundle.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", bundle.SuccessCount)
	}
	if bundle.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", bundle.FailureCount)
	}
	if got, want := bundle.TotalElapsed, 2.75; got != want {
		t.Errorf("TotalElapsed = %v, want %v", got, want)
	}
	if !bundle.Succeeded() {
		t.Error("Succeeded() = false, want true")
	}
	if bundle.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestAggregateIsPure(t *testing.T) {
	records := sampleRecords()

	first := Aggregate(records)
	second := Aggregate(records)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated aggregation diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregateEmpty(t *testing.T) {
	bundle := Aggregate(map[string]GroupExecutionRecord{})

	if !bundle.Empty() {
		t.Error("Empty() = false, want true")
	}
	if bundle.Succeeded() {
		t.Error("Succeeded() = true, want false")
	}
}
