package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCommitIncrementsCounters(t *testing.T) {
	before := testutil.ToFloat64(CommitsTotal)
	ObserveCommit(3, 0.002)
	after := testutil.ToFloat64(CommitsTotal)
	if after != before+1 {
		t.Fatalf("CommitsTotal = %v, want %v", after, before+1)
	}
}

func TestObserveWitnessSetsGauge(t *testing.T) {
	ObserveWitness(42)
	if got := testutil.ToFloat64(WitnessNodes); got != 42 {
		t.Fatalf("WitnessNodes = %v, want 42", got)
	}
	ObserveWitness(7)
	if got := testutil.ToFloat64(WitnessNodes); got != 7 {
		t.Fatalf("WitnessNodes = %v, want 7", got)
	}
}
