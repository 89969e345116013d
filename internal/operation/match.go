package operation

// Keyed is implemented by descriptors that have a stable identity.
type Keyed interface {
	Key() string
}

// Pair holds the source and target version of a descriptor present on both sides.
type Pair[T Keyed] struct {
	Old T
	New T
}

// Match is the result of pairing source and target descriptors by key.
type Match[T Keyed] struct {
	Added   []T
	Removed []T
	Common  []Pair[T]
}

// MatchByKey pairs descriptors by identity. Added and Common follow target order, Removed
// follows source order. Duplicate keys keep the last occurrence.
func MatchByKey[T Keyed](source, target []T) Match[T] {
	var m Match[T]

	sourceByKey := make(map[string]T, len(source))
	for _, d := range source {
		sourceByKey[d.Key()] = d
	}
	targetKeys := make(map[string]bool, len(target))
	for _, d := range target {
		targetKeys[d.Key()] = true
	}

	for _, d := range target {
		if old, ok := sourceByKey[d.Key()]; ok {
			m.Common = append(m.Common, Pair[T]{Old: old, New: d})
			continue
		}
		m.Added = append(m.Added, d)
	}
	for _, d := range source {
		if !targetKeys[d.Key()] {
			m.Removed = append(m.Removed, d)
		}
	}
	return m
}

// EqualSets reports whether a and b hold the same elements regardless of order and duplicates.
func EqualSets(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, ok := setA[s]; !ok {
			return false
		}
		setB[s] = struct{}{}
	}
	return len(setA) == len(setB)
}

// Subtract returns the elements of a that are not in b, in the order of a.
func Subtract(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		if _, ok := exclude[s]; ok {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
