package agent

import "testing"

func TestDescribeTraitsReturnsTopThree(t *testing.T) {
	p := Personality{}
	p[TraitLoyalty] = 0.9
	p[TraitGreed] = 0.8
	p[TraitCourage] = 0.7
	p[TraitOpenness] = 0.1

	got := p.DescribeTraits()
	want := "loyalty, greed, courage"
	if got != want {
		t.Errorf("DescribeTraits() = %q, want %q", got, want)
	}
}

func TestNewClampsPersonalityTraits(t *testing.T) {
	a := New(1, "guard", Personality{-1, 2, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	if a.Personality[TraitOpenness] != TraitMin {
		t.Errorf("TraitOpenness = %v, want clamped to %v", a.Personality[TraitOpenness], TraitMin)
	}
	if a.Personality[TraitConscientiousness] != TraitMax {
		t.Errorf("TraitConscientiousness = %v, want clamped to %v", a.Personality[TraitConscientiousness], TraitMax)
	}
}
