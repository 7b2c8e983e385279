package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tier is the reward band a claim lands in, ordered best-first.
// The ordinal doubles as the index into Event.RewardTiers.
type Tier int

const (
	TierGold Tier = iota
	TierSilver
	TierBronze
)

var tierNames = [...]string{"gold", "silver", "bronze"}

func (t Tier) Valid() bool {
	return t >= TierGold && t <= TierBronze
}

// Index returns the position of this tier inside Event.RewardTiers.
func (t Tier) Index() int {
	return int(t)
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier maps a stored label back to its Tier.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// TierForFill computes the tier from the pre-increment occupancy.
// Thresholds are exact thirds of capacity (integer division), half-open
// on the left: fill < cap/3 → gold, fill < 2*cap/3 → silver, else bronze.
func TierForFill(fill, capacity int) Tier {
	switch {
	case fill < capacity/3:
		return TierGold
	case fill < 2*capacity/3:
		return TierSilver
	default:
		return TierBronze
	}
}

// Tiers are persisted and serialized as their labels, not ordinals,
// so rows stay readable in psql and API payloads.

func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier ordinal %d", int(t))
	}
	return t.String(), nil
}

func (t *Tier) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTier(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := ParseTier(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Tier", src)
	}
}

func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier ordinal %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
