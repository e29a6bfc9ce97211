package model

// LinkMap maps rune positions in rendered text to link targets.
type LinkMap struct {
	Entries []LinkEntry `json:"entries,omitempty"`
}

// LinkEntry covers [Start, End) rune range of rendered text.
type LinkEntry struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	URL   string `json:"url"`
}

// Add registers a link, adjacent ranges with the same target are merged.
func (lm *LinkMap) Add(start, end int, url string) {
	if n := len(lm.Entries); n > 0 && lm.Entries[n-1].End == start && lm.Entries[n-1].URL == url {
		lm.Entries[n-1].End = end
		return
	}
	lm.Entries = append(lm.Entries, LinkEntry{Start: start, End: end, URL: url})
}

// URLAt returns the URL if pos is within a link, or empty string if not.
func (lm *LinkMap) URLAt(pos int) string {
	for _, e := range lm.Entries {
		if pos >= e.Start && pos < e.End {
			return e.URL
		}
	}
	return ""
}
