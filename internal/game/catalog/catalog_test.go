package catalog

import (
	"testing"
)

func TestDefaultSpecs(t *testing.T) {
	c := Default()

	attegg, ok := c.Get(KindAttegg)
	if !ok {
		t.Fatal("attegg missing from catalog")
	}
	if !attegg.Counterable {
		t.Error("attegg should be counterable")
	}
	if attegg.AttackTurns != 2 {
		t.Errorf("expected attack multiplier 2, got %d", attegg.AttackTurns)
	}

	bomb, ok := c.Get(KindEggsplode)
	if !ok {
		t.Fatal("eggsplode missing from catalog")
	}
	if !bomb.DrawOnly {
		t.Error("eggsplode should resolve on draw")
	}
	if bomb.Playable {
		t.Error("eggsplode should not be playable")
	}

	if _, ok := c.Get(Kind("unknown")); ok {
		t.Error("unknown kind should not resolve")
	}

	for _, k := range []Kind{KindRadioeggtive, KindRadioeggtiveUp} {
		spec, ok := c.Get(k)
		if !ok {
			t.Fatalf("%s missing from catalog", k)
		}
		if !spec.DrawOnly {
			t.Errorf("%s should resolve on draw", k)
		}
		if spec.DeckCount != 0 {
			t.Errorf("%s enters the deck only when enabled, got count %d", k, spec.DeckCount)
		}
	}
}

func TestCombo(t *testing.T) {
	c := Default()

	kind, err := c.Combo([]Kind{KindFood0, KindFood0})
	if err != nil {
		t.Fatalf("pair combo failed: %v", err)
	}
	if kind != ComboPairSteal {
		t.Errorf("expected pair steal, got %s", kind)
	}

	kind, err = c.Combo([]Kind{KindFood2, KindFood2, KindFood2})
	if err != nil {
		t.Fatalf("trio combo failed: %v", err)
	}
	if kind != ComboTrioDemand {
		t.Errorf("expected trio demand, got %s", kind)
	}
}

func TestComboRejectsPartialMatches(t *testing.T) {
	c := Default()

	cases := [][]Kind{
		{KindFood0},
		{KindFood0, KindFood1},
		{KindFood0, KindFood0, KindFood1},
		{KindSkip, KindSkip},
		{KindFood0, KindFood0, KindFood0, KindFood0},
	}
	for _, kinds := range cases {
		if _, err := c.Combo(kinds); err == nil {
			t.Errorf("expected combo %v to be rejected", kinds)
		}
	}
}

func TestBaseDeckScalesWithPlayers(t *testing.T) {
	c := Default()

	small := c.BaseDeck(4)
	large := c.BaseDeck(5)
	if len(large) != 2*len(small) {
		t.Errorf("expected doubled deck for 5 players: %d vs %d", len(large), len(small))
	}
	for _, k := range small {
		if k == KindEggsplode {
			t.Fatal("base deck must not contain bombs")
		}
	}
}

func TestBombs(t *testing.T) {
	c := Default()
	if got := c.Bombs(4); got != 3 {
		t.Errorf("expected 3 bombs for 4 players, got %d", got)
	}
	if got := c.Bombs(1); got != 0 {
		t.Errorf("expected 0 bombs for 1 player, got %d", got)
	}
}

func TestDefaultDemandKind(t *testing.T) {
	c := Default()
	k := c.DefaultDemandKind()
	if k == KindEggsplode || k == "" {
		t.Errorf("default demand kind must be a holdable kind, got %q", k)
	}
}
