package dataset

// InferRole classifies a column from its cells. A column is numeric when every
// non-null cell reads as a number, temporal when every non-null cell reads as a
// date, and categorical otherwise (including all-null columns).
func InferRole(values []Value) Role {
	nonNull, numeric, temporal := 0, 0, 0
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		nonNull++
		if v.Kind == KindTime {
			temporal++
			continue
		}
		if _, ok := v.Float(); ok {
			numeric++
			continue
		}
		if _, ok := v.Timestamp(); ok {
			temporal++
		}
	}

	switch {
	case nonNull == 0:
		return RoleCategorical
	case numeric == nonNull:
		return RoleNumeric
	case temporal == nonNull:
		return RoleTemporal
	default:
		return RoleCategorical
	}
}

// DistinctLabels returns the distinct non-null labels of values in first-seen order
func DistinctLabels(values []Value) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		label, ok := v.Label()
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
