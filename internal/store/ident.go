package store

// NextID returns one more than the largest identifier in records, or 1 when
// records is empty. The result is only unique while the caller holds the
// collection critical section (see Collection.Update).
func NextID[T any](records []T, id func(T) int) int {
	maxID := 0
	for _, r := range records {
		if v := id(r); v > maxID {
			maxID = v
		}
	}
	return maxID + 1
}
