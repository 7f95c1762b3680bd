package odds

import "github.com/shopspring/decimal"

// BetType tags one wager shape
type BetType string

const (
	BetGrupo       BetType = "grupo"
	BetDuqueGrupo  BetType = "duque_grupo"
	BetTernoGrupo  BetType = "terno_grupo"
	BetQuadraGrupo BetType = "quadra_grupo"
	BetQuinaGrupo  BetType = "quina_grupo"
	BetDezena      BetType = "dezena"
	BetCentena     BetType = "centena"
	BetMilhar      BetType = "milhar"
	BetDuqueDezena BetType = "duque_dezena"
	BetTernoDezena BetType = "terno_dezena"
)

// Premio selects which prize tiers a wager covers: a specific tier 1-5,
// or PremioAll for all five at once.
type Premio int

// PremioAll covers tiers 1 through 5
const PremioAll Premio = 0

// Valid reports whether the premio value is in range
func (p Premio) Valid() bool {
	return p >= PremioAll && p <= 5
}

// CoversTier reports whether the premio covers a given tier
func (p Premio) CoversTier(tier int) bool {
	return p == PremioAll || int(p) == tier
}

// BetTypeSpec describes the exact shape a wager of this type must have
// and its payout multiplier at single-tier scale.
type BetTypeSpec struct {
	Type        BetType         `json:"type"`
	AnimalCount int             `json:"animal_count"`
	NumberCount int             `json:"number_count"`
	NumberLen   int             `json:"number_len"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	// AllTiersOnly marks combination types that always play across
	// all five prize tiers.
	AllTiersOnly bool `json:"all_tiers_only"`
}

var catalog = map[BetType]BetTypeSpec{
	BetGrupo:       {Type: BetGrupo, AnimalCount: 1, Multiplier: decimal.NewFromInt(18)},
	BetDuqueGrupo:  {Type: BetDuqueGrupo, AnimalCount: 2, Multiplier: decimal.NewFromInt(95), AllTiersOnly: true},
	BetTernoGrupo:  {Type: BetTernoGrupo, AnimalCount: 3, Multiplier: decimal.NewFromInt(650), AllTiersOnly: true},
	BetQuadraGrupo: {Type: BetQuadraGrupo, AnimalCount: 4, Multiplier: decimal.NewFromInt(4000), AllTiersOnly: true},
	BetQuinaGrupo:  {Type: BetQuinaGrupo, AnimalCount: 5, Multiplier: decimal.NewFromInt(25000), AllTiersOnly: true},
	BetDezena:      {Type: BetDezena, NumberCount: 1, NumberLen: 2, Multiplier: decimal.NewFromInt(90)},
	BetCentena:     {Type: BetCentena, NumberCount: 1, NumberLen: 3, Multiplier: decimal.NewFromInt(900)},
	BetMilhar:      {Type: BetMilhar, NumberCount: 1, NumberLen: 4, Multiplier: decimal.NewFromInt(8000)},
	BetDuqueDezena: {Type: BetDuqueDezena, NumberCount: 2, NumberLen: 2, Multiplier: decimal.NewFromInt(1500), AllTiersOnly: true},
	BetTernoDezena: {Type: BetTernoDezena, NumberCount: 3, NumberLen: 2, Multiplier: decimal.NewFromInt(15000), AllTiersOnly: true},
}

var five = decimal.NewFromInt(5)

// Spec looks up the catalog entry for a bet type
func Spec(t BetType) (BetTypeSpec, bool) {
	spec, ok := catalog[t]
	return spec, ok
}

// Catalog returns all bet types in a stable order
func Catalog() []BetTypeSpec {
	order := []BetType{
		BetGrupo, BetDuqueGrupo, BetTernoGrupo, BetQuadraGrupo, BetQuinaGrupo,
		BetDezena, BetCentena, BetMilhar, BetDuqueDezena, BetTernoDezena,
	}
	specs := make([]BetTypeSpec, 0, len(order))
	for _, t := range order {
		specs = append(specs, catalog[t])
	}
	return specs
}

// EffectiveMultiplier returns the payout multiplier for a bet type under
// a given premio. Covering all five tiers divides the multiplier by 5.
func EffectiveMultiplier(spec BetTypeSpec, premio Premio) decimal.Decimal {
	if premio == PremioAll {
		return spec.Multiplier.Div(five)
	}
	return spec.Multiplier
}

// PotentialPayout computes floor(stake × multiplier)
func PotentialPayout(spec BetTypeSpec, premio Premio, stake decimal.Decimal) decimal.Decimal {
	return stake.Mul(EffectiveMultiplier(spec, premio)).Floor()
}
