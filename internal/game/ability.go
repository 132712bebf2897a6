package game

import (
	"math/rand"
	"time"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

type AbilityKey string

const (
	AbilityJam        AbilityKey = "JAM"
	AbilityCounter    AbilityKey = "COUNTER"
	AbilityNuke       AbilityKey = "NUKE"
	AbilityAnnihilate AbilityKey = "ANNIHILATE"
	AbilityScanner    AbilityKey = "SCANNER"
	AbilityHacker     AbilityKey = "HACKER"
	AbilityGodsHand   AbilityKey = "GODS_HAND"
)

type AbilityCategory string

const (
	CategoryAttack  AbilityCategory = "attack"
	CategoryDefense AbilityCategory = "defense"
	CategorySupport AbilityCategory = "support"
)

type Ability struct {
	Key         AbilityKey      `json:"key"`
	Name        string          `json:"name"`
	Category    AbilityCategory `json:"category"`
	Description string          `json:"description"`
	AdminOnly   bool            `json:"adminOnly,omitempty"`
	// Rounds the ability stays armed after granting. 0 means it never
	// expires on its own.
	Duration int `json:"duration,omitempty"`
}

// jamDuration is the number of opponent turns a JAM stays armed.
const jamDuration = 2

var abilityCatalogue = map[AbilityKey]Ability{
	AbilityJam: {
		Key:         AbilityJam,
		Name:        "Jam",
		Category:    CategoryDefense,
		Description: "Blocks the next incoming attack. Expires after two opponent turns.",
		Duration:    jamDuration,
	},
	AbilityCounter: {
		Key:         AbilityCounter,
		Name:        "Counter",
		Category:    CategoryDefense,
		Description: "Automatically returns fire at the attacker's last hit coordinate.",
	},
	AbilityNuke: {
		Key:         AbilityNuke,
		Name:        "Nuke",
		Category:    CategoryAttack,
		Description: "Strikes a 2x2 area in a single turn.",
	},
	AbilityAnnihilate: {
		Key:         AbilityAnnihilate,
		Name:        "Annihilate",
		Category:    CategoryAttack,
		Description: "Sweeps an entire row or column.",
	},
	AbilityScanner: {
		Key:         AbilityScanner,
		Name:        "Scanner",
		Category:    CategorySupport,
		Description: "Reveals whether ships occupy a 2x2 area without firing.",
	},
	AbilityHacker: {
		Key:         AbilityHacker,
		Name:        "Hacker",
		Category:    CategorySupport,
		Description: "Reveals one hidden ship cell on the opponent's grid.",
	},
	AbilityGodsHand: {
		Key:         AbilityGodsHand,
		Name:        "God's Hand",
		Category:    CategoryAttack,
		Description: "Admin override that destroys a full grid quadrant.",
		AdminOnly:   true,
	},
}

func LookupAbility(key AbilityKey) (Ability, error) {
	ab, ok := abilityCatalogue[key]
	if !ok {
		return Ability{}, apperr.NotFound("unknown ability: %s", key)
	}
	return ab, nil
}

// grantPool lists the player-grantable abilities for one category.
func grantPool(cat AbilityCategory) []AbilityKey {
	keys := make([]AbilityKey, 0, 2)
	for key, ab := range abilityCatalogue {
		if ab.Category == cat && !ab.AdminOnly {
			keys = append(keys, key)
		}
	}
	// Map order is random; sort so the rng draw is reproducible.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// AbilityState tracks one installed ability on one player.
type AbilityState struct {
	Installed bool      `json:"installed"`
	Used      bool      `json:"used"`
	Active    bool      `json:"active"`
	GrantedAt time.Time `json:"grantedAt"`
	// Remaining opponent turns before a duration ability deactivates.
	Duration int `json:"duration,omitempty"`
}

func (s *AbilityState) armed() bool {
	return s != nil && s.Installed && s.Active && !s.Used
}

// GrantAbility installs an ability on the player. A player holds at most
// one armed ability per category, mirroring the three-slot loadout.
func GrantAbility(p *Player, key AbilityKey, now time.Time) error {
	ab, err := LookupAbility(key)
	if err != nil {
		return err
	}
	if p.Abilities == nil {
		p.Abilities = make(map[AbilityKey]*AbilityState)
	}
	if p.Abilities[key].armed() {
		return apperr.Conflict("player %s already holds an unused %s", p.ID, key)
	}
	for other, st := range p.Abilities {
		if other == key || !st.armed() {
			continue
		}
		if existing, lookupErr := LookupAbility(other); lookupErr == nil && existing.Category == ab.Category {
			return apperr.Conflict("player %s already holds a %s ability (%s)", p.ID, ab.Category, other)
		}
	}
	p.Abilities[key] = &AbilityState{
		Installed: true,
		Active:    true,
		GrantedAt: now,
		Duration:  ab.Duration,
	}
	return nil
}

// checkUsable verifies the use-preconditions without consuming anything.
func checkUsable(p *Player, key AbilityKey) (*AbilityState, error) {
	st, ok := p.Abilities[key]
	if !ok || !st.Installed {
		return nil, apperr.NotFound("player %s has no %s installed", p.ID, key)
	}
	if st.Used {
		return nil, apperr.IllegalAction("%s already used", key)
	}
	if !st.Active {
		return nil, apperr.IllegalAction("%s is no longer active", key)
	}
	return st, nil
}

// tickDurations advances duration abilities by one opponent turn,
// deactivating any that run out without being triggered.
func tickDurations(p *Player) {
	for key, st := range p.Abilities {
		ab, err := LookupAbility(key)
		if err != nil || ab.Duration == 0 {
			continue
		}
		if !st.armed() {
			continue
		}
		st.Duration--
		if st.Duration <= 0 {
			st.Active = false
		}
	}
}

// grantRandomLoadout gives the player one random ability per category.
// Used when a match with abilities enabled starts.
func grantRandomLoadout(p *Player, rng *rand.Rand, now time.Time) {
	for _, cat := range []AbilityCategory{CategoryAttack, CategoryDefense, CategorySupport} {
		pool := grantPool(cat)
		if len(pool) == 0 {
			continue
		}
		key := pool[rng.Intn(len(pool))]
		// A fresh player has empty slots, so this cannot conflict.
		_ = GrantAbility(p, key, now)
	}
}
