package project

// Aggregate counts projects per effective status. Entries appear in the order
// each status is first seen in projects; the result is never nil.
func Aggregate(projects []Project) []StatusCount {
	out := make([]StatusCount, 0, len(Statuses))
	index := make(map[string]int, len(Statuses))
	for _, p := range projects {
		status := EffectiveStatus(p.Status)
		if i, ok := index[status]; ok {
			out[i].Count++
			continue
		}
		index[status] = len(out)
		out = append(out, StatusCount{
			Status: status,
			Count:  1,
			Color:  StatusColor(status),
		})
	}
	return out
}

// Total sums the counts of an aggregation.
func Total(counts []StatusCount) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}
