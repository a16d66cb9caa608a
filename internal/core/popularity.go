package core

// Popularity is an insertion-ordered tally of service ids.
type Popularity struct {
	order  []string
	counts map[string]int
}

type PopularityEntry struct {
	ServiceID string
	Count     int
}

func NewPopularity() *Popularity {
	return &Popularity{counts: make(map[string]int)}
}

// Add increments the tally for id, remembering the first time it was seen.
func (p *Popularity) Add(id string) {
	if p.counts == nil {
		p.counts = make(map[string]int)
	}
	if _, ok := p.counts[id]; !ok {
		p.order = append(p.order, id)
	}
	p.counts[id]++
}

func (p *Popularity) Count(id string) int {
	if p == nil {
		return 0
	}
	return p.counts[id]
}

func (p *Popularity) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Total is the sum of every count.
func (p *Popularity) Total() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, c := range p.counts {
		total += c
	}
	return total
}

// Entries returns the tally in first-seen order.
func (p *Popularity) Entries() []PopularityEntry {
	if p == nil {
		return nil
	}
	out := make([]PopularityEntry, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, PopularityEntry{ServiceID: id, Count: p.counts[id]})
	}
	return out
}

// MostPopular returns the entry with the strictly greatest count. On ties the
// entry seen first wins. ok is false for an empty tally.
func (p *Popularity) MostPopular() (best PopularityEntry, ok bool) {
	for _, e := range p.Entries() {
		if !ok || e.Count > best.Count {
			best, ok = e, true
		}
	}
	return best, ok
}

// PopularService is the selector's pick joined with the catalog name. Name is
// empty when the id is missing from the catalog.
type PopularService struct {
	ServiceID string
	Name      string
	Count     int
}
