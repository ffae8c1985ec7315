package core

// ProjectCategories flattens a period into the sidebar category list: a
// synthetic "total" entry built from the period's own totals, followed by
// one entry per envelope summary in list order.
func ProjectCategories(p Period) []CategoryItem {
	items := make([]CategoryItem, 0, len(p.EnvelopeSummaries)+1)
	items = append(items, CategoryItem{
		ID:        TotalCategoryID,
		Name:      "Total",
		Allocated: p.TotalBudget,
		Spent:     p.TotalSpent,
		Remaining: p.TotalRemaining,
	})
	for _, s := range p.EnvelopeSummaries {
		items = append(items, CategoryItem{
			ID:        s.EnvelopeID,
			Name:      s.EnvelopeName,
			Allocated: s.Allocated,
			Spent:     s.Spent,
			Remaining: s.Remaining,
		})
	}
	return items
}

// ApplyEnvelopeCreated merges a just-created envelope into a period snapshot
// as a zeroed summary, so the sidebar can show it before the next server
// refresh. The merge is idempotent: if a summary with the envelope's id is
// already present the period is returned with its summaries copied but
// otherwise unchanged. Period totals are never recomputed here; the zeroed
// placeholder cannot shift them.
func ApplyEnvelopeCreated(p Period, e Envelope) Period {
	out := p
	out.EnvelopeSummaries = make([]EnvelopeSummary, len(p.EnvelopeSummaries), len(p.EnvelopeSummaries)+1)
	copy(out.EnvelopeSummaries, p.EnvelopeSummaries)

	for _, s := range out.EnvelopeSummaries {
		if s.EnvelopeID == e.ID {
			return out
		}
	}
	out.EnvelopeSummaries = append(out.EnvelopeSummaries, EnvelopeSummary{
		EnvelopeID:   e.ID,
		EnvelopeName: e.Name,
	})
	return out
}

// ResolveSelected returns the category matching id, falling back to the
// first entry (the total view) when nothing matches. Selection never
// fails; an empty list yields the zero value.
func ResolveSelected(cats []CategoryItem, id string) CategoryItem {
	for _, c := range cats {
		if c.ID == id {
			return c
		}
	}
	if len(cats) == 0 {
		return CategoryItem{}
	}
	return cats[0]
}
