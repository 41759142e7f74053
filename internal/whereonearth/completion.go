package whereonearth

// Progress counts how many roster members have an entry.
type Progress struct {
	Entered int
	Total   int
	Pending []string
}

// ProgressOf joins the roster and the entries by display name. The roster is
// fetched fresh every turn and may not share an id space with entries.
func ProgressOf(c *Challenge, roster []Member) Progress {
	names := make(map[string]struct{}, len(c.Entries))
	for _, e := range c.Entries {
		names[e.UserName] = struct{}{}
	}

	p := Progress{Total: len(roster), Pending: []string{}}
	for _, m := range roster {
		if _, ok := names[m.DisplayName]; ok {
			p.Entered++
			continue
		}
		p.Pending = append(p.Pending, m.DisplayName)
	}
	return p
}

// IsComplete reports whether entries should close. It holds when every
// roster member has answered, or when more entries exist than the roster
// size. The second rule keeps the game moving when the membership service
// returns nothing.
func IsComplete(c *Challenge, roster []Member) bool {
	p := ProgressOf(c, roster)
	if p.Total > 0 && p.Entered >= p.Total {
		return true
	}
	return len(c.Entries) > p.Total
}
