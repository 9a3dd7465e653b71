package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Loader holds every static game catalog. Compiled-in defaults are used for
// any catalog without a JSON override in the data dir.
type Loader struct {
	dataDir string

	Rarities       []RarityDef
	Templates      []*ItemTemplate
	Traits         []*TraitDef
	Variants       []string
	Materials      []string
	Bosses         []*BossDef
	Challenges     []*ChallengeDef
	QuestTemplates []*QuestTemplate
	ExerciseDamage map[string]int
}

// NewLoader creates a Loader with compiled-in defaults. dataDir may be empty.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:        dataDir,
		Rarities:       defaultRarities(),
		Templates:      defaultTemplates(),
		Traits:         defaultTraits(),
		Variants:       defaultVariants(),
		Materials:      defaultMaterials(),
		Bosses:         defaultBosses(),
		Challenges:     defaultChallenges(),
		QuestTemplates: defaultQuestTemplates(),
		ExerciseDamage: defaultExerciseDamage(),
	}
}

// Load applies JSON overrides from the data dir. Missing files are skipped;
// a malformed file is an error.
func (l *Loader) Load() error {
	if l.dataDir == "" {
		return nil
	}
	loaders := []struct {
		file string
		dst  interface{}
	}{
		{"rarities.json", &l.Rarities},
		{"items.json", &l.Templates},
		{"traits.json", &l.Traits},
		{"variants.json", &l.Variants},
		{"materials.json", &l.Materials},
		{"bosses.json", &l.Bosses},
		{"challenges.json", &l.Challenges},
		{"quests.json", &l.QuestTemplates},
		{"exercises.json", &l.ExerciseDamage},
	}
	for _, ld := range loaders {
		path := filepath.Join(l.dataDir, ld.file)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("catalog: read %s: %w", ld.file, err)
		}
		if err := json.Unmarshal(data, ld.dst); err != nil {
			return fmt.Errorf("catalog: parse %s: %w", ld.file, err)
		}
	}
	return nil
}

// Rarity returns the definition for the named tier.
func (l *Loader) Rarity(name string) (RarityDef, bool) {
	for _, r := range l.Rarities {
		if r.Name == name {
			return r, true
		}
	}
	return RarityDef{}, false
}

// Template returns the item template with the given id.
func (l *Loader) Template(id string) (*ItemTemplate, bool) {
	for _, t := range l.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// TemplatesBySlot returns every template for the given slot.
func (l *Loader) TemplatesBySlot(slot string) []*ItemTemplate {
	var out []*ItemTemplate
	for _, t := range l.Templates {
		if t.Slot == slot {
			out = append(out, t)
		}
	}
	return out
}

// Trait returns the trait with the given id.
func (l *Loader) Trait(id string) (*TraitDef, bool) {
	for _, t := range l.Traits {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Boss returns the boss with the given id.
func (l *Loader) Boss(id string) (*BossDef, bool) {
	for _, b := range l.Bosses {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// BossesForParty returns bosses whose member range admits memberCount.
func (l *Loader) BossesForParty(memberCount int) []*BossDef {
	var out []*BossDef
	for _, b := range l.Bosses {
		if memberCount >= b.MinMembers && memberCount <= b.MaxMembers {
			out = append(out, b)
		}
	}
	return out
}

// Challenge returns the duel challenge with the given id.
func (l *Loader) Challenge(id string) (*ChallengeDef, bool) {
	for _, c := range l.Challenges {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// QuestTemplatesByType returns every quest template of the given type.
func (l *Loader) QuestTemplatesByType(questType string) []*QuestTemplate {
	var out []*QuestTemplate
	for _, t := range l.QuestTemplates {
		if t.Type == questType {
			out = append(out, t)
		}
	}
	return out
}

// BaseDamage returns the per-rep damage value for an exercise.
func (l *Loader) BaseDamage(exercise string) int {
	if d, ok := l.ExerciseDamage[exercise]; ok {
		return d
	}
	return DefaultExerciseBaseDamage
}
