package relation

import "testing"

func TestStrengthenIsDirectedTrustSymmetricFamiliarity(t *testing.T) {
	s := NewStore()
	s.Strengthen(1, 2, 0.3, 0.1, 1000)

	if got := s.Trust(1, 2); got != 0.3 {
		t.Fatalf("Trust(1,2) = %v, want 0.3", got)
	}
	if got := s.Trust(2, 1); got != 0 {
		t.Fatalf("Trust(2,1) = %v, want 0 (directed, unset)", got)
	}
	if got := s.Familiarity(1, 2); got != 0.1 {
		t.Fatalf("Familiarity(1,2) = %v, want 0.1", got)
	}
	if got := s.Familiarity(2, 1); got != 0.1 {
		t.Fatalf("Familiarity(2,1) = %v, want symmetric 0.1", got)
	}
}

func TestTrustClampedToUnitRange(t *testing.T) {
	s := NewStore()
	s.Strengthen(1, 2, 5.0, 5.0, 0)
	if got := s.Trust(1, 2); got != 1 {
		t.Fatalf("Trust clamp failed: got %v, want 1", got)
	}
	s.SetTrust(1, 2, -5.0)
	if got := s.Trust(1, 2); got != -1 {
		t.Fatalf("SetTrust clamp failed: got %v, want -1", got)
	}
}

func TestDriftTickHalvesAfterHalfLife(t *testing.T) {
	s := NewStore()
	s.SetTrust(1, 2, 0.8)

	s.DriftTick(HalfLifeHours)

	got := s.Trust(1, 2)
	if got < 0.39 || got > 0.41 {
		t.Fatalf("after one half-life, trust = %v, want ~0.4", got)
	}
}

func TestPinnedRelationSkipsDrift(t *testing.T) {
	s := NewStore()
	s.SetTrust(1, 2, 0.8)
	s.Pin(1, 2, true)

	s.DriftTick(HalfLifeHours * 10)

	if got := s.Trust(1, 2); got != 0.8 {
		t.Fatalf("pinned relation drifted: got %v, want 0.8 unchanged", got)
	}
}
