package economy

import (
	"errors"
	"testing"
	"time"

	"clicker_empire/internal/domain"
)

func TestMaxEnergy_ScenarioD(t *testing.T) {
	if got := MaxEnergy(3, 2); got != 2500 {
		t.Fatalf("MaxEnergy(3,2) = %d; want 2500", got)
	}
	if got := MaxEnergy(1, 0); got != 500 {
		t.Fatalf("MaxEnergy(1,0) = %d; want 500", got)
	}
	for lvl := 1; lvl < 30; lvl++ {
		for items := 0; items < 10; items++ {
			if MaxEnergy(lvl, items)%500 != 0 {
				t.Fatalf("MaxEnergy(%d,%d) not a multiple of 500", lvl, items)
			}
		}
	}
}

func TestApplyProgression_EnergyItem(t *testing.T) {
	cat := DefaultCatalog()
	p := domain.Player{Level: 3, ItemLevels: map[string]int{ItemEnergyTank: 2}}
	p, _ = ApplyProgression(p, cat)
	if p.MaxEnergy != 2500 {
		t.Fatalf("max energy = %d; want 2500", p.MaxEnergy)
	}
}

func TestRegenEnergy_CarriesPartialMinutes(t *testing.T) {
	p := domain.Player{Energy: 0, MaxEnergy: 500, LastEnergyAt: t0}

	p = RegenEnergy(p, t0.Add(90*time.Second), 1)
	if p.Energy != 1 {
		t.Fatalf("energy = %d; want 1", p.Energy)
	}
	if !p.LastEnergyAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("cursor = %v; want advanced by one whole minute", p.LastEnergyAt)
	}

	p = RegenEnergy(p, t0.Add(120*time.Second), 1)
	if p.Energy != 2 {
		t.Fatalf("energy = %d; want 2 after the carried half minute", p.Energy)
	}
}

func TestRegenEnergy_ShortSessionsLoseNothing(t *testing.T) {
	p := domain.Player{Energy: 0, MaxEnergy: 500, LastEnergyAt: t0}
	now := t0
	for i := 0; i < 60; i++ {
		now = now.Add(10 * time.Second)
		p = RegenEnergy(p, now, 1)
	}
	if p.Energy != 10 {
		t.Fatalf("energy = %d; want 10 after ten minutes of 10s polls", p.Energy)
	}
}

func TestRegenEnergy_ClampsAndHandlesSkew(t *testing.T) {
	p := domain.Player{Energy: 495, MaxEnergy: 500, LastEnergyAt: t0}
	p = RegenEnergy(p, t0.Add(time.Hour), 1)
	if p.Energy != 500 {
		t.Fatalf("energy = %d; want clamped 500", p.Energy)
	}

	future := domain.Player{Energy: 10, MaxEnergy: 500, LastEnergyAt: t0.Add(time.Hour)}
	future = RegenEnergy(future, t0, 1)
	if future.Energy != 10 || !future.LastEnergyAt.Equal(t0) {
		t.Fatalf("future cursor should be pulled back without credit, got %+v", future)
	}
}

func TestRefillEnergy_DailyLimit(t *testing.T) {
	p := domain.Player{Energy: 0, MaxEnergy: 1500}
	var err error
	for i := 0; i < 5; i++ {
		p.Energy = 0
		p, err = RefillEnergy(p, t0, 5)
		if err != nil {
			t.Fatalf("refill %d: %v", i, err)
		}
		if p.Energy != 1500 {
			t.Fatalf("refill %d: energy = %d", i, p.Energy)
		}
	}

	p.Energy = 0
	p, err = RefillEnergy(p, t0.Add(time.Hour), 5)
	if !errors.Is(err, ErrRefillLimitReached) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if p.Energy != 0 {
		t.Fatalf("rejected refill changed energy to %d", p.Energy)
	}
	if left := RefillsLeft(p, t0, 5); left != 0 {
		t.Fatalf("refills left = %d; want 0", left)
	}

	nextDay := time.Date(2024, 5, 11, 0, 0, 1, 0, time.UTC)
	if left := RefillsLeft(p, nextDay, 5); left != 5 {
		t.Fatalf("refills left next day = %d; want 5", left)
	}
	p, err = RefillEnergy(p, nextDay, 5)
	if err != nil {
		t.Fatalf("refill on new day: %v", err)
	}
	if p.RefillsUsed != 1 || p.RefillDay != "2024-05-11" {
		t.Fatalf("counter not reset: used=%d day=%s", p.RefillsUsed, p.RefillDay)
	}
}
