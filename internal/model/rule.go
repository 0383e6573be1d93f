package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// TaskKind is the care category of a rule or task.
type TaskKind string

const (
	KindFertilize TaskKind = "fertilize"
	KindPrune     TaskKind = "prune"
	KindTreat     TaskKind = "treat"
	KindWater     TaskKind = "water"
	KindHarvest   TaskKind = "harvest"
	KindOther     TaskKind = "other"
)

// TaskKinds lists every known kind in display order.
var TaskKinds = []TaskKind{KindWater, KindFertilize, KindPrune, KindTreat, KindHarvest, KindOther}

// ParseTaskKind resolves a user supplied kind, case-insensitively.
func ParseTaskKind(raw string) (TaskKind, bool) {
	value := TaskKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, k := range TaskKinds {
		if k == value {
			return k, true
		}
	}
	return "", false
}

// CareRule is a recurring care instruction for a plant.
//
// At most one of EveryDays and EveryMonths is set. A rule with neither is
// non-recurring and never generates tasks.
type CareRule struct {
	ID          uint     `gorm:"primaryKey"`
	UserID      uint     `gorm:"index"`
	PlantID     uint     `gorm:"index"`
	Kind        TaskKind `gorm:"type:varchar(16)"`
	AnchorDate  time.Time
	EveryDays   *int
	EveryMonths *int
	Note        string
	Active      bool `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Plant       *Plant `gorm:"foreignKey:PlantID"`
}

// IsRecurring reports whether the rule carries a period at all.
func (r CareRule) IsRecurring() bool {
	return r.EveryDays != nil || r.EveryMonths != nil
}

// AfterFind keeps dates in UTC whatever zone the driver parsed them in.
func (r *CareRule) AfterFind(tx *gorm.DB) error {
	r.AnchorDate = r.AnchorDate.UTC()
	return nil
}
