package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

type progressionTable struct {
	Levels []progressionLevel `json:"levels"`
}

type progressionLevel struct {
	Level   int   `json:"level"`
	TotalXP int64 `json:"totalXP"`
}

// loadGoldenDragonXP evaluates the non-uniform Golden Dragon curve: the XP to
// level the pet end to end is the difference between the last and first
// entries of the total-experience-at-level table.
func loadGoldenDragonXP(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var table progressionTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(table.Levels) < 2 {
		return 0, fmt.Errorf("progression table %s needs at least two levels", path)
	}
	first := table.Levels[0].TotalXP
	last := table.Levels[len(table.Levels)-1].TotalXP
	return last - first, nil
}
