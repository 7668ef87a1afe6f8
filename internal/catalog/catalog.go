package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tier is the auction-house rarity of a pet, ordered lowest to highest.
type Tier string

const (
	TierCommon    Tier = "COMMON"
	TierUncommon  Tier = "UNCOMMON"
	TierRare      Tier = "RARE"
	TierEpic      Tier = "EPIC"
	TierLegendary Tier = "LEGENDARY"
	TierMythic    Tier = "MYTHIC"
)

// Tiers returns all rarities in ascending order.
func Tiers() []Tier {
	return []Tier{TierCommon, TierUncommon, TierRare, TierEpic, TierLegendary, TierMythic}
}

// Bracket is the level end of a tracked pet: freshly obtained or fully leveled.
type Bracket string

const (
	BracketLow  Bracket = "low"
	BracketHigh Bracket = "high"
)

// ItemKey identifies one tracked price series.
type ItemKey struct {
	Pet     string
	Tier    Tier
	Bracket Bracket
}

// GoldenDragonPet levels from 102 to 200 instead of 1 to 100, and its XP
// requirement comes from the progression table rather than the per-tier
// constants.
const GoldenDragonPet = "Golden Dragon"

// xpRequiredByTier is the end-to-end leveling XP for a standard pet.
var xpRequiredByTier = map[Tier]int64{
	TierCommon:    5624785,
	TierUncommon:  8644220,
	TierRare:      12626665,
	TierEpic:      18608500,
	TierLegendary: 25353230,
	TierMythic:    25353230,
}

// Catalog is the static pet universe: which pets are tracked, which skill
// category owns each, and the flattened key cross-product used by every
// analysis pass. Loaded once at startup, read-only afterwards.
type Catalog struct {
	skillByPet     map[string]string
	keys           []ItemKey
	goldenDragonXP int64
}

type category struct {
	Skill string
	Pets  []string
}

func Load(petListPath, progressionPath string) (*Catalog, error) {
	categories, err := loadPetList(petListPath)
	if err != nil {
		return nil, fmt.Errorf("load pet list: %w", err)
	}

	gdXP, err := loadGoldenDragonXP(progressionPath)
	if err != nil {
		return nil, fmt.Errorf("load progression table: %w", err)
	}

	c := &Catalog{
		skillByPet:     make(map[string]string),
		goldenDragonXP: gdXP,
	}
	for _, cat := range categories {
		for _, pet := range cat.Pets {
			c.skillByPet[pet] = cat.Skill
		}
	}

	// Flatten once so analysis passes never re-derive the
	// category x pet x tier x bracket cross-product.
	for _, cat := range categories {
		for _, pet := range cat.Pets {
			for _, tier := range Tiers() {
				c.keys = append(c.keys, ItemKey{Pet: pet, Tier: tier, Bracket: BracketLow})
				c.keys = append(c.keys, ItemKey{Pet: pet, Tier: tier, Bracket: BracketHigh})
			}
		}
	}

	return c, nil
}

// Keys returns the precomputed tracked-key list. Callers must not mutate it.
func (c *Catalog) Keys() []ItemKey {
	return c.keys
}

// SkillOf returns the skill category owning a pet.
func (c *Catalog) SkillOf(pet string) (string, bool) {
	skill, ok := c.skillByPet[pet]
	return skill, ok
}

// XPRequired returns the experience needed to level a pet end to end.
func (c *Catalog) XPRequired(pet string, tier Tier) int64 {
	if pet == GoldenDragonPet {
		return c.goldenDragonXP
	}
	return xpRequiredByTier[tier]
}

// DisplayName returns the auction-house item name for a pet at one bracket,
// e.g. "[Lvl 1] Rock" or "[Lvl 100] Rock".
func DisplayName(pet string, bracket Bracket) string {
	low, high := 1, 100
	if pet == GoldenDragonPet {
		low, high = 102, 200
	}
	if bracket == BracketHigh {
		return fmt.Sprintf("[Lvl %d] %s", high, pet)
	}
	return fmt.Sprintf("[Lvl %d] %s", low, pet)
}

// loadPetList reads the category file: a JSON array of single-key objects
// mapping a skill name to its pet names.
func loadPetList(path string) ([]category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []map[string][]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]category, 0, len(entries))
	for _, entry := range entries {
		for skill, pets := range entry {
			out = append(out, category{Skill: skill, Pets: pets})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pet list %s is empty", path)
	}
	return out, nil
}
