package timetable

// SplitSessions decomposes a remaining-minutes total into a sequence of
// teachable block lengths. Fixed heuristic, applied in priority order:
//
//  1. totals of an hour or less stay a single block
//  2. totals divisible by 90 become all-90 blocks
//  3. totals divisible by 120 become all-120 blocks
//  4. otherwise greedy 60-minute blocks, with the final block absorbing
//     the remainder so no sub-hour fragment is left dangling
//
// It never searches for the arrangement minimizing block count.
func SplitSessions(remaining int) []int {
	if remaining <= 0 {
		return nil
	}
	if remaining <= 60 {
		return []int{remaining}
	}
	if remaining%90 == 0 {
		blocks := make([]int, remaining/90)
		for i := range blocks {
			blocks[i] = 90
		}
		return blocks
	}
	if remaining%120 == 0 {
		blocks := make([]int, remaining/120)
		for i := range blocks {
			blocks[i] = 120
		}
		return blocks
	}
	var blocks []int
	for remaining > 120 {
		blocks = append(blocks, 60)
		remaining -= 60
	}
	return append(blocks, remaining)
}
