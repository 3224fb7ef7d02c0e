package participants

import (
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/salapix/go/internal/models"
)

func confirmed(ids ...string) []models.Participant {
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Participant{UserID: id, DisplayName: "user " + id})
	}
	return out
}

func TestRecordArrival(t *testing.T) {
	tests := []struct {
		name      string
		confirmed []string
		arrivals  []string
		wantCount int
	}{
		{"no snapshot, distinct", nil, []string{"1", "2", "3"}, 3},
		{"no snapshot, duplicates", nil, []string{"1", "1", "2", "1", "2"}, 2},
		{"already confirmed", []string{"1", "2"}, []string{"2", "3"}, 3},
		{"blank ids ignored", []string{"1"}, []string{"", "  ", "4"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(clockwork.NewFakeClock())
			if tt.confirmed != nil {
				r.SetConfirmed(confirmed(tt.confirmed...))
			}
			for _, id := range tt.arrivals {
				r.RecordArrival(id, "name "+id)
			}
			if got := r.TotalCount(); got != tt.wantCount {
				t.Errorf("TotalCount() = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestCountGrowsByDistinctIDsOnly(t *testing.T) {
	r := NewReconciler(clockwork.NewFakeClock())
	r.SetConfirmed(confirmed("a", "b"))
	before := r.TotalCount()

	seq := []string{"c", "a", "d", "c", "c", "e", "d", "b"}
	distinct := map[string]struct{}{}
	for _, id := range seq {
		distinct[id] = struct{}{}
		r.RecordArrival(id, id)
	}
	if grew := r.TotalCount() - before; grew > len(distinct) {
		t.Fatalf("count grew by %d, more than %d distinct ids", grew, len(distinct))
	}
	if got := r.TotalCount(); got != 5 {
		t.Errorf("TotalCount() = %d, want 5", got)
	}
}

func TestArrivalsBeforeSnapshotReconcileLazily(t *testing.T) {
	r := NewReconciler(clockwork.NewFakeClock())
	r.RecordArrival("1", "Ana")
	r.RecordArrival("9", "Bia")
	if got := r.TotalCount(); got != 2 {
		t.Fatalf("buffered TotalCount() = %d, want 2", got)
	}

	// Snapshot arrives and already includes participant 1.
	r.SetConfirmed(confirmed("1", "2", "3"))

	if got := r.TotalCount(); got != 4 {
		t.Errorf("TotalCount() = %d, want 4", got)
	}
	all := r.All()
	seen := map[string]int{}
	for _, p := range all {
		seen[p.UserID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("participant %s appears %d times", id, n)
		}
	}
	speculative := r.Speculative()
	if len(speculative) != 1 || speculative[0].UserID != "9" || speculative[0].Provenance != models.ProvenanceSpeculative {
		t.Errorf("Speculative() = %+v", speculative)
	}
}

func TestSetConfirmedOnlyOnce(t *testing.T) {
	r := NewReconciler(nil)
	if !r.SetConfirmed(confirmed("1")) {
		t.Fatal("first SetConfirmed should apply")
	}
	if r.SetConfirmed(confirmed("1", "2", "3")) {
		t.Fatal("second SetConfirmed should be ignored")
	}
	if got := r.TotalCount(); got != 1 {
		t.Errorf("TotalCount() = %d, want 1", got)
	}
	if !r.Loaded() {
		t.Error("Loaded() = false")
	}
}

func TestAllOrdersConfirmedFirst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewReconciler(clock)
	r.RecordArrival("z", "Zed")
	r.SetConfirmed(confirmed("a"))
	r.RecordArrival("y", "Yara")

	all := r.All()
	var got []string
	for _, p := range all {
		got = append(got, p.UserID)
	}
	if fmt.Sprint(got) != "[a z y]" {
		t.Errorf("All() order = %v", got)
	}
	if all[0].Provenance != models.ProvenanceConfirmed {
		t.Errorf("confirmed provenance = %q", all[0].Provenance)
	}
	if !all[1].JoinedAt.Equal(clock.Now()) {
		t.Errorf("speculative JoinedAt = %v, want %v", all[1].JoinedAt, clock.Now())
	}
	if !r.Contains("y") || r.Contains("q") {
		t.Error("Contains() mismatch")
	}
}
