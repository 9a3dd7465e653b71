package item

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/catalog"
	"github.com/fitforge/server/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Item sources and their luck bias. Luck moves selection weight off Common
// toward the rarer tiers.
const (
	SourceNormal = "normal"
	SourceQuest  = "quest"
	SourceRaid   = "raid"
	SourceEvent  = "event"
	SourceBoss   = "boss"
)

var sourceLuck = map[string]int{
	SourceNormal: 0,
	SourceQuest:  8,
	SourceEvent:  12,
	SourceRaid:   18,
	SourceBoss:   30,
}

// commonWeightFloor is the minimum weight Common keeps regardless of luck.
const commonWeightFloor = 10

// traitCountOdds[rank] is the probability of rolling 0, 1, 2 or 3 traits for
// that rarity rank. Mythic never rolls fewer than 2.
var traitCountOdds = [][]float64{
	{0.70, 0.30, 0.00, 0.00}, // common
	{0.45, 0.45, 0.10, 0.00}, // uncommon
	{0.25, 0.50, 0.25, 0.00}, // rare
	{0.10, 0.40, 0.40, 0.10}, // epic
	{0.00, 0.30, 0.50, 0.20}, // legendary
	{0.00, 0.00, 0.60, 0.40}, // mythic
}

// GenerateOptions selects what to generate. Zero-value fields are randomized:
// no TemplateID and no Slot draws uniformly from the whole catalog, a Slot
// draws among that slot's templates, and an empty Rarity runs the weighted
// rarity roll.
type GenerateOptions struct {
	TemplateID   string
	Slot         string
	Rarity       string
	Source       string
	BonusLuck    int
	ForcedTraits []string
}

// Generator produces procedurally described items from the template catalog.
// The RNG is injected so tests can fix the seed.
type Generator struct {
	cat    *catalog.Loader
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewGenerator creates a Generator. A nil rng falls back to a time-seeded one.
func NewGenerator(cat *catalog.Loader, rng *rand.Rand, logger *zap.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cat: cat, rng: rng, logger: logger}
}

// Generate builds one item. The returned item is not persisted.
func (g *Generator) Generate(opts GenerateOptions) (*model.Item, error) {
	tpl, err := g.pickTemplate(opts)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == "" {
		source = SourceNormal
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rarity, err := g.resolveRarity(opts.Rarity, source, opts.BonusLuck)
	if err != nil {
		return nil, err
	}

	traits, err := g.rollTraits(rarity.Rank, opts.ForcedTraits)
	if err != nil {
		return nil, err
	}

	stats := computeStats(tpl.BaseStats, rarity.Multiplier, traits)
	variant := g.pickGated(g.cat.Variants, rarity.Rank)
	material := g.pickGated(g.cat.Materials, rarity.Rank)

	traitIDs := make([]string, len(traits))
	for i, t := range traits {
		traitIDs[i] = t.ID
	}
	statsJSON, _ := json.Marshal(stats)
	traitsJSON, _ := json.Marshal(traitIDs)

	return &model.Item{
		ID:         uuid.NewString(),
		TemplateID: tpl.ID,
		Name:       composeName(tpl.Name, material, traits),
		Slot:       tpl.Slot,
		Rarity:     rarity.Name,
		Stats:      datatypes.JSON(statsJSON),
		Traits:     datatypes.JSON(traitsJSON),
		Variant:    variant,
		Material:   material,
		Source:     source,
	}, nil
}

func (g *Generator) pickTemplate(opts GenerateOptions) (*catalog.ItemTemplate, error) {
	if opts.TemplateID != "" {
		tpl, ok := g.cat.Template(opts.TemplateID)
		if !ok {
			return nil, apperr.Validation("unknown item template %q", opts.TemplateID)
		}
		return tpl, nil
	}
	pool := g.cat.Templates
	if opts.Slot != "" {
		pool = g.cat.TemplatesBySlot(opts.Slot)
		if len(pool) == 0 {
			return nil, apperr.Validation("no item templates for slot %q", opts.Slot)
		}
	}
	if len(pool) == 0 {
		return nil, apperr.Validation("item template catalog is empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return pool[g.rng.Intn(len(pool))], nil
}

// resolveRarity runs the weighted rarity draw, or validates an explicit tier.
// Caller holds g.mu.
func (g *Generator) resolveRarity(explicit, source string, bonusLuck int) (catalog.RarityDef, error) {
	if explicit != "" {
		r, ok := g.cat.Rarity(explicit)
		if !ok {
			return catalog.RarityDef{}, apperr.Validation("unknown rarity %q", explicit)
		}
		return r, nil
	}

	luck := sourceLuck[source] + bonusLuck
	weights := g.biasedWeights(luck)

	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := g.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return g.cat.Rarities[i], nil
		}
	}
	return g.cat.Rarities[len(g.cat.Rarities)-1], nil
}

// biasedWeights shifts luck points of weight mass from Common toward the
// rarer tiers. The shifted mass is split across non-common tiers in
// proportion to their rank, so Legendary/Mythic gain the most. Common keeps
// at least commonWeightFloor so it is never fully eliminated.
func (g *Generator) biasedWeights(luck int) []float64 {
	rarities := g.cat.Rarities
	weights := make([]float64, len(rarities))
	rankSum := 0
	for i, r := range rarities {
		weights[i] = float64(r.Weight)
		if r.Name != catalog.RarityCommon {
			rankSum += r.Rank
		}
	}
	if luck <= 0 || rankSum == 0 {
		return weights
	}
	for i, r := range rarities {
		if r.Name != catalog.RarityCommon {
			continue
		}
		shift := math.Min(float64(luck), weights[i]-commonWeightFloor)
		if shift <= 0 {
			return weights
		}
		weights[i] -= shift
		for j, rr := range rarities {
			if rr.Name == catalog.RarityCommon {
				continue
			}
			weights[j] += shift * float64(rr.Rank) / float64(rankSum)
		}
		break
	}
	return weights
}

// rollTraits draws the trait set: forced traits first, then weighted draws
// without replacement up to the rolled count. Caller holds g.mu.
func (g *Generator) rollTraits(rank int, forced []string) ([]*catalog.TraitDef, error) {
	var traits []*catalog.TraitDef
	taken := make(map[string]bool)
	for _, id := range forced {
		def, ok := g.cat.Trait(id)
		if !ok {
			return nil, apperr.Validation("unknown trait %q", id)
		}
		if taken[id] {
			continue
		}
		taken[id] = true
		traits = append(traits, def)
	}

	count := g.rollTraitCount(rank)
	for len(traits) < count {
		def := g.drawTrait(taken)
		if def == nil {
			break
		}
		taken[def.ID] = true
		traits = append(traits, def)
	}
	return traits, nil
}

func (g *Generator) rollTraitCount(rank int) int {
	if rank >= len(traitCountOdds) {
		rank = len(traitCountOdds) - 1
	}
	odds := traitCountOdds[rank]
	roll := g.rng.Float64()
	for count, p := range odds {
		roll -= p
		if roll < 0 {
			return count
		}
	}
	return len(odds) - 1
}

func (g *Generator) drawTrait(taken map[string]bool) *catalog.TraitDef {
	total := 0
	for _, t := range g.cat.Traits {
		if !taken[t.ID] {
			total += t.Weight
		}
	}
	if total == 0 {
		return nil
	}
	roll := g.rng.Intn(total)
	for _, t := range g.cat.Traits {
		if taken[t.ID] {
			continue
		}
		roll -= t.Weight
		if roll < 0 {
			return t
		}
	}
	return nil
}

// computeStats scales base stats by the rarity multiplier, then applies each
// trait's proportional bonus multiplicatively on the already-scaled value, in
// trait order. Rounding happens once at the end so the sequence is
// reproducible.
func computeStats(base map[string]int, multiplier float64, traits []*catalog.TraitDef) map[string]int {
	out := make(map[string]int, len(base))
	for stat, v := range base {
		scaled := float64(v) * multiplier
		for _, t := range traits {
			if bonus, ok := t.StatBonus[stat]; ok {
				scaled *= 1 + bonus
			}
		}
		out[stat] = int(math.Round(scaled))
	}
	return out
}

// pickGated draws uniformly from the pool's unlocked range. Higher rarity
// rank unlocks higher (more exotic) indices. Caller holds g.mu.
func (g *Generator) pickGated(pool []string, rank int) string {
	if len(pool) == 0 {
		return ""
	}
	limit := len(pool) * (rank + 1) / len(g.cat.Rarities)
	if limit < 1 {
		limit = 1
	}
	if limit > len(pool) {
		limit = len(pool)
	}
	return pool[g.rng.Intn(limit)]
}

// composeName builds "Prefix Material Base of Suffix" from the first trait
// carrying a prefix and the first carrying a suffix.
func composeName(base, material string, traits []*catalog.TraitDef) string {
	parts := make([]string, 0, 4)
	for _, t := range traits {
		if t.Prefix != "" {
			parts = append(parts, t.Prefix)
			break
		}
	}
	if material != "" {
		parts = append(parts, titleCase(material))
	}
	parts = append(parts, base)
	for _, t := range traits {
		if t.Suffix != "" {
			parts = append(parts, t.Suffix)
			break
		}
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
