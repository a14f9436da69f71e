// Package status derives renderable vitals from raw server deltas. The
// server is loose about field naming (snake_case and camelCase coexist, and
// older servers report HP where current ones report DP), so every semantic
// field resolves through an ordered candidate-key list with total fallback
// behavior. Reduce never fails and never returns an invalid status.
package status

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMax is the vitality capacity assumed when the server reports zero
// or garbage for max. Zero is a known server sentinel, not a real capacity.
const DefaultMax = 100.0

// Tier is the discrete vitality band derived from (current, max).
type Tier string

const (
	TierHealthy       Tier = "healthy"
	TierWounded       Tier = "wounded"
	TierCritical      Tier = "critical"
	TierIncapacitated Tier = "incapacitated"
)

// Change records the delta that produced a status. Timestamp is the
// caller-supplied ISO-8601 string from the originating frame.
type Change struct {
	Delta     float64
	Reason    string
	Timestamp string
}

// Status is the UI-facing vitals snapshot. Reduce always builds a fresh
// value; nothing mutates a Status in place. Posture and InCombat are the
// only fields carried over from the previous status when an event omits
// them; an empty Posture and a nil InCombat mean the server never said.
type Status struct {
	Current    float64
	Max        float64
	Tier       Tier
	Posture    string
	InCombat   *bool
	LastChange *Change
}

// Candidate key lists, in resolution order. DP spellings are canonical;
// the HP spellings cover frames from older servers.
var (
	oldKeys    = []string{"old_dp", "oldDp", "old_hp", "oldHp"}
	newKeys    = []string{"new_dp", "newDp", "new_hp", "newHp"}
	maxKeys    = []string{"max_dp", "maxDp", "max_hp", "maxHp"}
	damageKeys = []string{"damage_taken", "damageTaken"}
	sourceKeys = []string{"source_name", "source", "source_id"}
	combatKeys = []string{"in_combat", "inCombat"}
)

// HasVitalFields reports whether a payload carries any vitality field,
// meaning it should be routed through Reduce.
func HasVitalFields(raw map[string]any) bool {
	for _, key := range newKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	for _, key := range oldKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}

	return false
}

// Reduce computes the next status and the signed delta that produced it
// from the previous status (nil for the first event), a raw event payload,
// and the frame timestamp.
func Reduce(prev *Status, raw map[string]any, timestamp string) (Status, float64) {
	prevCurrent := 0.0
	prevMax := DefaultMax
	if prev != nil {
		prevCurrent = prev.Current
		prevMax = prev.Max
	}

	old := resolveNumber(raw, oldKeys, fallbackNumber(prev != nil, prevCurrent, 0))
	current := resolveNumber(raw, newKeys, fallbackNumber(prev != nil, prevCurrent, 0))

	max := resolveNumber(raw, maxKeys, prevMax)
	if max <= 0 {
		max = DefaultMax
	}

	delta := current - old

	next := Status{
		Current: current,
		Max:     max,
		Tier:    TierFor(current, max),
		LastChange: &Change{
			Delta:     delta,
			Reason:    resolveReason(raw, delta),
			Timestamp: timestamp,
		},
	}

	if posture, ok := raw["posture"].(string); ok && posture != "" {
		next.Posture = posture
	} else if prev != nil {
		next.Posture = prev.Posture
	}

	if combat, ok := resolveBool(raw, combatKeys); ok {
		next.InCombat = &combat
	} else if prev != nil {
		next.InCombat = prev.InCombat
	}

	return next, delta
}

// TierFor derives the vitality band purely from current and max. max is
// assumed positive; Reduce guarantees that.
func TierFor(current float64, max float64) Tier {
	switch ratio := current / max; {
	case current <= 0:
		return TierIncapacitated
	case ratio < 0.25:
		return TierCritical
	case ratio < 0.6:
		return TierWounded
	default:
		return TierHealthy
	}
}

// FormatChangeMessage renders one human-readable line for a reduced change,
// e.g. "Health loses 12 (poison dart) from Goblin → 38/100 (Wounded)".
// Reason and source segments are omitted when unresolved.
func FormatChangeMessage(st Status, delta float64, raw map[string]any) string {
	verb := "recovers"
	if delta < 0 {
		verb = "loses"
	}

	var sb strings.Builder
	sb.WriteString("Health ")
	sb.WriteString(verb)
	sb.WriteString(" ")
	sb.WriteString(formatAmount(math.Abs(delta)))

	if st.LastChange != nil && st.LastChange.Reason != "" {
		sb.WriteString(" (")
		sb.WriteString(humanizeReason(st.LastChange.Reason))
		sb.WriteString(")")
	}

	if source := resolveSource(raw); source != "" {
		sb.WriteString(" from ")
		sb.WriteString(source)
	}

	sb.WriteString(fmt.Sprintf(" → %s/%s (%s)", formatAmount(st.Current), formatAmount(st.Max), tierLabel(st.Tier)))

	return sb.String()
}

// resolveNumber returns the first coercible value among the candidate keys,
// falling back to the supplied default.
func resolveNumber(raw map[string]any, keys []string, fallback float64) float64 {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if number, ok := coerceNumber(value); ok {
			return number
		}
	}

	return fallback
}

func fallbackNumber(hasPrev bool, prevValue float64, zeroDefault float64) float64 {
	if hasPrev {
		return prevValue
	}

	return zeroDefault
}

// coerceNumber accepts finite numbers as-is and finite parses of strings.
// Everything else is rejected; it never panics.
func coerceNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		if isFinite(typed) {
			return typed, true
		}
	case float32:
		return coerceNumber(float64(typed))
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err == nil && isFinite(parsed) {
			return parsed, true
		}
	}

	return 0, false
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func resolveBool(raw map[string]any, keys []string) (bool, bool) {
	for _, key := range keys {
		if value, ok := raw[key].(bool); ok {
			return value, true
		}
	}

	return false, false
}

// resolveReason applies the reason precedence: an explicit non-empty reason
// field wins; otherwise a positive damage field or negative delta means
// damage, a negative damage field or positive delta means healing, and a
// flat event carries no reason. Underscores stay intact here; humanization
// is a formatting concern.
func resolveReason(raw map[string]any, delta float64) string {
	if reason, ok := raw["reason"].(string); ok {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			return trimmed
		}
	}

	damage, hasDamage := 0.0, false
	for _, key := range damageKeys {
		if value, ok := raw[key]; ok {
			if number, ok := coerceNumber(value); ok {
				damage, hasDamage = number, true
				break
			}
		}
	}

	switch {
	case (hasDamage && damage > 0) || delta < 0:
		return "damage"
	case (hasDamage && damage < 0) || delta > 0:
		return "healing"
	default:
		return ""
	}
}

func resolveSource(raw map[string]any) string {
	for _, key := range sourceKeys {
		if value, ok := raw[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}

	return ""
}

func humanizeReason(reason string) string {
	return strings.ReplaceAll(reason, "_", " ")
}

func tierLabel(tier Tier) string {
	s := string(tier)
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
