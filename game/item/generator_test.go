package item

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/fitforge/server/apperr"
	"github.com/fitforge/server/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(seed int64) *Generator {
	return NewGenerator(catalog.NewLoader(""), rand.New(rand.NewSource(seed)), nil)
}

func itemStats(t *testing.T, raw []byte) map[string]int {
	t.Helper()
	stats := make(map[string]int)
	require.NoError(t, json.Unmarshal(raw, &stats))
	return stats
}

func TestGenerate_UnknownTemplate(t *testing.T) {
	g := newGenerator(1)
	_, err := g.Generate(GenerateOptions{TemplateID: "does_not_exist", Source: SourceNormal})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestGenerate_UnknownSlot(t *testing.T) {
	g := newGenerator(1)
	_, err := g.Generate(GenerateOptions{Slot: "tail", Source: SourceNormal})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestGenerate_UnknownRarity(t *testing.T) {
	g := newGenerator(1)
	_, err := g.Generate(GenerateOptions{TemplateID: "sword", Rarity: "ultimate"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestGenerate_SlotFilter(t *testing.T) {
	g := newGenerator(7)
	for i := 0; i < 50; i++ {
		it, err := g.Generate(GenerateOptions{Slot: catalog.SlotWeapon, Source: SourceNormal})
		require.NoError(t, err)
		assert.Equal(t, catalog.SlotWeapon, it.Slot)
	}
}

func TestGenerate_ExplicitTemplateAndRarity(t *testing.T) {
	// With no traits in the catalog, stats must be exactly base × multiplier.
	cat := catalog.NewLoader("")
	cat.Traits = nil
	g := NewGenerator(cat, rand.New(rand.NewSource(3)), nil)

	it, err := g.Generate(GenerateOptions{TemplateID: "sword", Rarity: catalog.RarityLegendary, Source: SourceBoss})
	require.NoError(t, err)
	assert.Equal(t, catalog.SlotWeapon, it.Slot)
	assert.Equal(t, catalog.RarityLegendary, it.Rarity)
	assert.Equal(t, SourceBoss, it.Source)

	tpl, ok := cat.Template("sword")
	require.True(t, ok)
	rar, ok := cat.Rarity(catalog.RarityLegendary)
	require.True(t, ok)

	stats := itemStats(t, it.Stats)
	for stat, base := range tpl.BaseStats {
		want := int(math.Round(float64(base) * rar.Multiplier))
		assert.Equal(t, want, stats[stat], "stat %s", stat)
	}
}

func TestGenerate_TraitBonusOnScaledValue(t *testing.T) {
	// One trait with a known bonus: the bonus applies to the scaled value,
	// not the raw base.
	cat := catalog.NewLoader("")
	cat.Traits = []*catalog.TraitDef{
		{ID: "mighty", Name: "Mighty", Weight: 1, StatBonus: map[string]float64{"strength": 0.15}, Prefix: "Mighty"},
	}
	g := NewGenerator(cat, rand.New(rand.NewSource(5)), nil)

	it, err := g.Generate(GenerateOptions{
		TemplateID:   "gauntlets",
		Rarity:       catalog.RarityEpic,
		ForcedTraits: []string{"mighty"},
		Source:       SourceQuest,
	})
	require.NoError(t, err)

	rar, _ := cat.Rarity(catalog.RarityEpic)
	base := 8 // gauntlets strength
	want := int(math.Round(float64(base) * rar.Multiplier * 1.15))
	stats := itemStats(t, it.Stats)
	assert.Equal(t, want, stats["strength"])
	assert.Contains(t, it.Name, "Mighty")
}

func TestGenerate_ForcedTraitsCountTowardTotal(t *testing.T) {
	g := newGenerator(11)
	it, err := g.Generate(GenerateOptions{
		TemplateID:   "sword",
		Rarity:       catalog.RarityCommon,
		ForcedTraits: []string{"vampiric"},
		Source:       SourceNormal,
	})
	require.NoError(t, err)

	var traits []string
	require.NoError(t, json.Unmarshal(it.Traits, &traits))
	assert.Contains(t, traits, "vampiric")
	// No duplicates even if the roll would have drawn vampiric again.
	seen := make(map[string]bool)
	for _, tr := range traits {
		assert.False(t, seen[tr], "duplicate trait %s", tr)
		seen[tr] = true
	}
}

func TestGenerate_MythicHasAtLeastTwoTraits(t *testing.T) {
	g := newGenerator(13)
	for i := 0; i < 200; i++ {
		it, err := g.Generate(GenerateOptions{TemplateID: "sword", Rarity: catalog.RarityMythic, Source: SourceBoss})
		require.NoError(t, err)
		var traits []string
		require.NoError(t, json.Unmarshal(it.Traits, &traits))
		assert.GreaterOrEqual(t, len(traits), 2)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := newGenerator(42).Generate(GenerateOptions{Source: SourceRaid})
	require.NoError(t, err)
	b, err := newGenerator(42).Generate(GenerateOptions{Source: SourceRaid})
	require.NoError(t, err)

	assert.Equal(t, a.TemplateID, b.TemplateID)
	assert.Equal(t, a.Rarity, b.Rarity)
	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, string(a.Stats), string(b.Stats))
	assert.Equal(t, string(a.Traits), string(b.Traits))
}

func TestGenerate_BossSourceSkewsRare(t *testing.T) {
	const n = 5000
	count := func(source string, seed int64) (rarePlus int) {
		g := newGenerator(seed)
		for i := 0; i < n; i++ {
			it, err := g.Generate(GenerateOptions{TemplateID: "sword", Source: source})
			require.NoError(t, err)
			switch it.Rarity {
			case catalog.RarityLegendary, catalog.RarityMythic:
				rarePlus++
			}
		}
		return rarePlus
	}

	normal := count(SourceNormal, 101)
	boss := count(SourceBoss, 101)
	assert.Greater(t, boss, normal, "boss drops should skew toward legendary/mythic")
}

func TestGenerate_CommonNeverEliminated(t *testing.T) {
	g := newGenerator(17)
	commons := 0
	for i := 0; i < 5000; i++ {
		it, err := g.Generate(GenerateOptions{TemplateID: "sword", Source: SourceBoss, BonusLuck: 100})
		require.NoError(t, err)
		if it.Rarity == catalog.RarityCommon {
			commons++
		}
	}
	assert.Greater(t, commons, 0, "common weight is floored, not eliminated")
}

func TestGenerate_VariantGating(t *testing.T) {
	cat := catalog.NewLoader("")
	g := NewGenerator(cat, rand.New(rand.NewSource(23)), nil)

	// Common only ever sees the lowest-index variant band.
	limit := len(cat.Variants) * 1 / len(cat.Rarities)
	if limit < 1 {
		limit = 1
	}
	allowed := make(map[string]bool)
	for _, v := range cat.Variants[:limit] {
		allowed[v] = true
	}
	for i := 0; i < 100; i++ {
		it, err := g.Generate(GenerateOptions{TemplateID: "sword", Rarity: catalog.RarityCommon, Source: SourceNormal})
		require.NoError(t, err)
		assert.True(t, allowed[it.Variant], "variant %q above common band", it.Variant)
	}
}

func TestComputeStats_OrderOfOperations(t *testing.T) {
	base := map[string]int{"strength": 10}
	traits := []*catalog.TraitDef{
		{ID: "a", StatBonus: map[string]float64{"strength": 0.10}},
		{ID: "b", StatBonus: map[string]float64{"strength": 0.20}},
	}
	got := computeStats(base, 2.0, traits)
	// 10 × 2.0 = 20, × 1.1 = 22, × 1.2 = 26.4 → 26
	assert.Equal(t, 26, got["strength"])
}
