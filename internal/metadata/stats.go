package metadata

// Completeness reports how many expected record fields carry a value, as
// filled count, expected count and rounded percentage. For shows every
// season and episode contributes its own expected fields, so a show with a
// sparse episode tree scores lower than its top-level block alone would.
func (r Record) Completeness() (filled, expected int, percent int) {
	count := func(ok bool) {
		expected++
		if ok {
			filled++
		}
	}

	count(r.SortTitle != "")
	count(r.OriginalTitle != "")
	count(r.OriginallyAvailable != "")
	count(r.ContentRating != "")
	count(r.Studio != "")
	count(r.Tagline != "")
	count(r.Summary != "")
	count(len(r.Country) > 0)
	count(len(r.Genre) > 0)

	if r.Seasons == nil {
		// Movie records expect the full credit block plus runtime.
		count(r.Runtime > 0)
		count(len(r.Cast) > 0)
		count(len(r.Director) > 0)
		count(len(r.Writer) > 0)
		count(len(r.Producer) > 0)
	}

	for _, season := range r.Seasons {
		count(season.OriginallyAvailable != "")
		for _, ep := range season.Episodes {
			count(ep.Title != "")
			count(ep.SortTitle != "")
			count(ep.OriginallyAvailable != "")
			count(ep.Runtime > 0)
			count(ep.Summary != "")
			count(len(ep.Cast) > 0)
			count(len(ep.Guest) > 0)
			count(len(ep.Director) > 0)
			count(len(ep.Writer) > 0)
		}
	}

	if expected == 0 {
		return 0, 0, 0
	}
	percent = (filled*100 + expected/2) / expected
	return filled, expected, percent
}
