package odds

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownBetType is returned for a wager type not in the catalog
var ErrUnknownBetType = errors.New("unknown bet type")

// InvalidWagerShapeError reports a cardinality or digit-length mismatch.
// Selections are never coerced: a 2-digit type fed "374" is rejected,
// and "5" is not padded to "05".
type InvalidWagerShapeError struct {
	Type   BetType
	Reason string
}

func (e *InvalidWagerShapeError) Error() string {
	return fmt.Sprintf("invalid %s wager: %s", e.Type, e.Reason)
}

// UnknownAnimalError reports a selection referencing a nonexistent group
type UnknownAnimalError struct {
	AnimalID int
}

func (e *UnknownAnimalError) Error() string {
	return fmt.Sprintf("unknown animal group %d", e.AnimalID)
}

// StakeOutOfBoundsError reports a stake below the minimum or a potential
// payout above the ceiling. MaxStake carries the largest stake that
// would satisfy the payout ceiling so clients can self-correct.
type StakeOutOfBoundsError struct {
	Stake    decimal.Decimal
	MinStake decimal.Decimal
	MaxStake decimal.Decimal
}

func (e *StakeOutOfBoundsError) Error() string {
	return fmt.Sprintf("stake %s out of bounds (min %s, max %s)",
		e.Stake.StringFixed(2), e.MinStake.StringFixed(2), e.MaxStake.StringFixed(2))
}

// Limits holds the configured stake floor and payout ceiling
type Limits struct {
	MinStake  decimal.Decimal
	MaxPayout decimal.Decimal
}

// WagerRequest is the raw wager shape submitted by a client
type WagerRequest struct {
	Type    BetType
	Animals []int
	Numbers []string
	Premio  Premio
	Stake   decimal.Decimal
}

// ValidatedWager is the outcome of a successful validation
type ValidatedWager struct {
	Spec            BetTypeSpec
	Premio          Premio
	PotentialPayout decimal.Decimal
}

// Validate enforces the exact shape of a wager type and computes the
// potential payout. Combination types are normalized to cover all five
// tiers regardless of the premio submitted.
func Validate(req WagerRequest, limits Limits) (*ValidatedWager, error) {
	spec, ok := Spec(req.Type)
	if !ok {
		return nil, ErrUnknownBetType
	}

	premio := req.Premio
	if spec.AllTiersOnly {
		premio = PremioAll
	}
	if !premio.Valid() {
		return nil, &InvalidWagerShapeError{Type: spec.Type, Reason: fmt.Sprintf("premio %d not in 1-5", req.Premio)}
	}

	if len(req.Animals) != spec.AnimalCount {
		return nil, &InvalidWagerShapeError{
			Type:   spec.Type,
			Reason: fmt.Sprintf("requires exactly %d animal(s), got %d", spec.AnimalCount, len(req.Animals)),
		}
	}
	seenAnimals := make(map[int]bool, len(req.Animals))
	for _, id := range req.Animals {
		if _, ok := AnimalByID(id); !ok {
			return nil, &UnknownAnimalError{AnimalID: id}
		}
		if seenAnimals[id] {
			return nil, &InvalidWagerShapeError{Type: spec.Type, Reason: fmt.Sprintf("animal group %d selected twice", id)}
		}
		seenAnimals[id] = true
	}

	if len(req.Numbers) != spec.NumberCount {
		return nil, &InvalidWagerShapeError{
			Type:   spec.Type,
			Reason: fmt.Sprintf("requires exactly %d number(s), got %d", spec.NumberCount, len(req.Numbers)),
		}
	}
	seenNumbers := make(map[string]bool, len(req.Numbers))
	for _, n := range req.Numbers {
		if len(n) != spec.NumberLen {
			return nil, &InvalidWagerShapeError{
				Type:   spec.Type,
				Reason: fmt.Sprintf("number %q must have exactly %d digits", n, spec.NumberLen),
			}
		}
		if !allDigits(n) {
			return nil, &InvalidWagerShapeError{Type: spec.Type, Reason: fmt.Sprintf("number %q is not numeric", n)}
		}
		if seenNumbers[n] {
			return nil, &InvalidWagerShapeError{Type: spec.Type, Reason: fmt.Sprintf("number %q selected twice", n)}
		}
		seenNumbers[n] = true
	}

	multiplier := EffectiveMultiplier(spec, premio)
	maxStake := limits.MaxPayout.Div(multiplier).Truncate(2)

	if req.Stake.LessThan(limits.MinStake) {
		return nil, &StakeOutOfBoundsError{Stake: req.Stake, MinStake: limits.MinStake, MaxStake: maxStake}
	}

	potential := req.Stake.Mul(multiplier).Floor()
	if potential.GreaterThan(limits.MaxPayout) {
		return nil, &StakeOutOfBoundsError{Stake: req.Stake, MinStake: limits.MinStake, MaxStake: maxStake}
	}

	return &ValidatedWager{Spec: spec, Premio: premio, PotentialPayout: potential}, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
