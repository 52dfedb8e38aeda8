package economy

import "clicker_empire/internal/domain"

// Progress describes where a player stands on the threshold table.
type Progress struct {
	CalculatedLevel int     `json:"calculated_level"`
	EffectiveLevel  int     `json:"level"`
	ProgressPercent float64 `json:"progress_percent"`
	NextThreshold   int64   `json:"next_threshold,omitempty"`
	LeveledUp       bool    `json:"leveled_up"`
}

// CalculateProgress derives the level implied by totalEarned and the progress
// towards the next threshold. Levels never go down: the recorded level is a floor.
func CalculateProgress(totalEarned int64, level int, thresholds []int64) Progress {
	if level < 1 {
		level = 1
	}
	if len(thresholds) == 0 {
		return Progress{CalculatedLevel: 1, EffectiveLevel: level}
	}

	calculated := 1
	for _, t := range thresholds {
		if totalEarned < t {
			break
		}
		calculated++
	}

	effective := level
	if calculated > effective {
		effective = calculated
	}

	p := Progress{
		CalculatedLevel: calculated,
		EffectiveLevel:  effective,
		LeveledUp:       calculated > level,
	}

	// thresholds[i] is the entry into level i+2.
	nextIdx := effective - 1
	if nextIdx >= len(thresholds) {
		p.ProgressPercent = 100
		return p
	}
	var floor int64
	if effective >= 2 {
		floor = thresholds[effective-2]
	}
	next := thresholds[nextIdx]
	p.NextThreshold = next

	pct := float64(totalEarned-floor) / float64(next-floor) * 100
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	p.ProgressPercent = pct
	return p
}

// ApplyProgression writes the effective level back and resizes the energy tank.
func ApplyProgression(p domain.Player, cat *Catalog) (domain.Player, Progress) {
	prog := CalculateProgress(p.TotalEarned, p.Level, cat.thresholds)
	p.Level = prog.EffectiveLevel
	p.MaxEnergy = MaxEnergy(p.Level, cat.energyLevels(p.ItemLevels))
	if p.Energy > p.MaxEnergy {
		p.Energy = p.MaxEnergy
	}
	return p, prog
}
