package odds

// PrizeOutcome is one ranked result of a completed draw
type PrizeOutcome struct {
	Tier     int
	AnimalID int
	Number   string
}

// Wins decides whether a selection beats the draw outcome. Group bets
// compare animal ids, number bets compare against the suffix of the
// result number matching the type's digit length. Every selected value
// must appear among the covered tiers; tiers the draw did not fill
// simply cannot match.
func Wins(spec BetTypeSpec, premio Premio, animals []int, numbers []string, prizes []PrizeOutcome) bool {
	var covered []PrizeOutcome
	for _, p := range prizes {
		if premio.CoversTier(p.Tier) {
			covered = append(covered, p)
		}
	}
	if len(covered) == 0 {
		return false
	}

	if spec.AnimalCount > 0 {
		drawn := make(map[int]bool, len(covered))
		for _, p := range covered {
			drawn[p.AnimalID] = true
		}
		for _, id := range animals {
			if !drawn[id] {
				return false
			}
		}
		return true
	}

	drawn := make(map[string]bool, len(covered))
	for _, p := range covered {
		if len(p.Number) >= spec.NumberLen {
			drawn[p.Number[len(p.Number)-spec.NumberLen:]] = true
		}
	}
	for _, n := range numbers {
		if !drawn[n] {
			return false
		}
	}
	return true
}
