package model

// ContextSnapshot is a point-in-time tally of host entities. It is computed per
// request and never cached.
type ContextSnapshot struct {
	Counts     map[string]int // by domain
	LightsOn   int
	SwitchesOn int
	Total      int
}

func NewContextSnapshot(states []EntityState) ContextSnapshot {
	s := ContextSnapshot{Counts: make(map[string]int), Total: len(states)}
	for _, st := range states {
		s.Counts[st.Domain]++
		if st.State != "on" {
			continue
		}
		switch st.Domain {
		case "light":
			s.LightsOn++
		case "switch":
			s.SwitchesOn++
		}
	}
	return s
}
