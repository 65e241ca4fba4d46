package slurm

import "sort"

// NameSet is a set of job names.
type NameSet map[string]struct{}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Classification partitions job names into succeeded and failed.
type Classification struct {
	Succeeded NameSet
	Failed    NameSet
}

// DedupeToLatest keeps one record per job name: the one with the greatest
// EndTime. On equal EndTime the record seen last wins.
func DedupeToLatest(records []JobRecord) map[string]JobRecord {
	latest := make(map[string]JobRecord, len(records))
	for _, r := range records {
		if cur, ok := latest[r.Name]; !ok || r.EndTime >= cur.EndTime {
			latest[r.Name] = r
		}
	}
	return latest
}

// Classify sorts each record into Succeeded or Failed. Only COMPLETED is a
// success; every other terminal state, including ones we do not recognize,
// counts as a failure.
func Classify(latest map[string]JobRecord) Classification {
	c := Classification{
		Succeeded: make(NameSet),
		Failed:    make(NameSet),
	}
	for name, r := range latest {
		if r.TerminalState == TerminalCompleted {
			c.Succeeded[name] = struct{}{}
		} else {
			c.Failed[name] = struct{}{}
		}
	}
	return c
}

// SortedRecords returns the values of a deduplicated map ordered by name.
func SortedRecords(latest map[string]JobRecord) []JobRecord {
	out := make([]JobRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
