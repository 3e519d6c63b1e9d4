package metrics

import "sort"

// StatusBucket is the number of responses that carried one status code.
type StatusBucket struct {
	Code  int
	Count int
}

// ErrorBucket is the number of transport errors of one kind.
type ErrorBucket struct {
	Kind  string
	Label string
	Count int
}

// FlattenStatusCodes converts a status->count map into rows sorted by
// descending count, then by code for stability.
func FlattenStatusCodes(codes map[int]int) []StatusBucket {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusBucket, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, StatusBucket{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// FlattenErrors converts a kind->count map into labelled rows sorted like
// FlattenStatusCodes.
func FlattenErrors(errs map[string]int) []ErrorBucket {
	if len(errs) == 0 {
		return nil
	}
	rows := make([]ErrorBucket, 0, len(errs))
	for kind, count := range errs {
		rows = append(rows, ErrorBucket{Kind: kind, Label: FriendlyErrorName(kind), Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
