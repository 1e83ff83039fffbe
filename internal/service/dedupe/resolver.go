// Package dedupe detects people and clinics that already exist under a
// slightly different spelling. Every lookup is a linear scan, which is fine
// for a directory of a few thousand records.
package dedupe

import "strings"

// PersonName is the identity of a person as far as duplicate detection cares.
type PersonName struct {
	ID     string
	First  string
	Middle string
	Last   string
}

// NamedEntity is anything identified by a single display name.
type NamedEntity struct {
	ID   string
	Name string
}

type normalizedName struct {
	first, middle, last string
}

func normalizePerson(p PersonName) normalizedName {
	return normalizedName{
		first:  Normalize(p.First),
		middle: Normalize(p.Middle),
		last:   Normalize(p.Last),
	}
}

// personsMatch reports a conflict when first names agree and the last names
// agree, allowing the middle and last name to have been swapped on either side.
func personsMatch(candidate, existing normalizedName) bool {
	if candidate.first == "" || candidate.first != existing.first {
		return false
	}
	if candidate.last != "" && existing.last == candidate.last {
		return true
	}
	if candidate.middle != "" && existing.last == candidate.middle {
		return true
	}
	return existing.middle != "" && existing.middle == candidate.last
}

// FindPersonConflict returns the ID of the first existing person that
// conflicts with candidate. The record with ignoreID, normally the one being
// edited, is skipped.
func FindPersonConflict(candidate PersonName, existing []PersonName, ignoreID string) (string, bool) {
	c := normalizePerson(candidate)
	for _, e := range existing {
		if ignoreID != "" && e.ID == ignoreID {
			continue
		}
		if personsMatch(c, normalizePerson(e)) {
			return e.ID, true
		}
	}
	return "", false
}

// FindClinicConflict returns the first entity whose normalized name equals
// the normalized form of name.
func FindClinicConflict(name string, existing []NamedEntity, ignoreID string) (string, bool) {
	key := Normalize(name)
	if key == "" {
		return "", false
	}
	for _, e := range existing {
		if ignoreID != "" && e.ID == ignoreID {
			continue
		}
		if Normalize(e.Name) == key {
			return e.ID, true
		}
	}
	return "", false
}

// FindRepeatedClinic reports the first pair of indexes in entries that name
// the same clinic. An entry with an id is keyed by the id, compared
// case-insensitively; otherwise by its normalized name. Blank entries are
// skipped.
func FindRepeatedClinic(entries []NamedEntity) (first, second int, found bool) {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		var key string
		if id := strings.ToLower(strings.TrimSpace(e.ID)); id != "" {
			key = "id:" + id
		} else if n := Normalize(e.Name); n != "" {
			key = "name:" + n
		} else {
			continue
		}
		if j, ok := seen[key]; ok {
			return j, i, true
		}
		seen[key] = i
	}
	return -1, -1, false
}
