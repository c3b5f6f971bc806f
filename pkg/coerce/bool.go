package coerce

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/custody/pkg/observation"
)

// ViolationField is the nested case record map of violation categories.
const ViolationField = "type_of_violation"

// falseLiteral is the only string form that coerces to false.
const falseLiteral = "FALSE"

// Bool applies the permissive boolean rule. It returns the coerced value and
// whether v needed rewriting: booleans and nil are returned untouched, every
// other value becomes true unless its trimmed string form is exactly "FALSE".
func Bool(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case bool:
		return val, false
	case string:
		return strings.TrimSpace(val) != falseLiteral, true
	}
	return strings.TrimSpace(fmt.Sprint(v)) != falseLiteral, true
}

var lower = cases.Lower(language.Und)

// ViolationKey normalizes a violation category name as typed in a
// spreadsheet header ("Unlawful Attacks ") to its canonical key.
func ViolationKey(name string) string {
	key := lower.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(key), "_")
}

// Violations lower-cases the keys of cid.type_of_violation and coerces its
// values with the boolean rule. When two keys normalize to the same name the
// one already in canonical form wins; otherwise the first in sorted order.
func Violations(obs observation.Observation) (observation.Observation, []error) {
	return updateCaseRecord(obs, func(cid map[string]any) bool {
		violations, ok := observation.AsMap(cid[ViolationField])
		if !ok {
			return false
		}

		out := make(map[string]any, len(violations))
		changed := false
		keys := make([]string, 0, len(violations))
		for k := range violations {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := violations[k]
			key := ViolationKey(k)
			if key != k {
				changed = true
				if _, canonical := violations[key]; canonical {
					continue
				}
				if _, taken := out[key]; taken {
					continue
				}
			}
			if b, rewritten := Bool(v); rewritten {
				v = b
				changed = true
			}
			out[key] = v
		}

		if !changed {
			return false
		}
		cid[ViolationField] = out
		return true
	}), nil
}
