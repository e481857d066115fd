package arena

import "io"

// PrintCondition writes a diagnostic dump of every component: each enabled
// pool's occupancy followed by both engines' free tables.
func (a *Arena) PrintCondition(w io.Writer) {
	if a.cfg.UsePools {
		for _, p := range a.pools {
			if p != nil {
				p.PrintCondition(w)
			}
		}
	}
	for _, e := range a.engines {
		if e != nil {
			e.PrintCondition(w)
		}
	}
}
