package sync

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Identity derivation. Identities must be stable across runs: reprocessing
// the same source entity has to resolve to the same stored identity, or
// duplicate records accumulate.

// EventID derives an event identity: primary id, else the external SKU code.
func EventID(ev map[string]any) string {
	if id := fieldString(ev, "id"); id != "" {
		return id
	}
	return fieldString(ev, "sku")
}

// DivisionID derives a division identity from its primary id.
func DivisionID(div map[string]any) string {
	return fieldString(div, "id")
}

// RankingID derives a ranking identity: primary id, else "team_<teamID>".
// The team-based fallback disambiguates alliance partners that share a rank.
func RankingID(r map[string]any) string {
	if id := fieldString(r, "id"); id != "" {
		return id
	}
	if teamID := nestedString(r, "team", "id"); teamID != "" {
		return "team_" + teamID
	}
	return ""
}

// MatchID derives a match identity: primary id, else the match number.
func MatchID(m map[string]any) string {
	if id := fieldString(m, "id"); id != "" {
		return id
	}
	return fieldString(m, "matchnum")
}

// TeamID derives a team identity: primary id, else the team number.
func TeamID(t map[string]any) string {
	if id := fieldString(t, "id"); id != "" {
		return id
	}
	return fieldString(t, "number")
}

// SkillID derives a skill-result identity: primary id, else
// "<teamID>_<skillType>" (one record per team per discipline).
func SkillID(s map[string]any) string {
	if id := fieldString(s, "id"); id != "" {
		return id
	}
	teamID := nestedString(s, "team", "id")
	skillType := fieldString(s, "type")
	if teamID == "" || skillType == "" {
		return ""
	}
	return teamID + "_" + skillType
}

// fieldString renders a scalar field as a stable identity string. JSON
// numbers decode as float64; integral values must not pick up fractional
// noise.
func fieldString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func nestedString(m map[string]any, outer, inner string) string {
	nested, ok := m[outer].(map[string]any)
	if !ok {
		return ""
	}
	return fieldString(nested, inner)
}
