package domain

import "sort"

// Less is the queue ordering policy: emergency tokens first (by their own
// emergency sequence), then regular tokens by numeric sequence, with
// CreatedAt as a final tie-break guarding against numbering anomalies.
// Sequence numbers are compared as integers, never as display strings.
func Less(a, b *Token) bool {
	if a.IsEmergency != b.IsEmergency {
		return a.IsEmergency
	}
	if a.SequenceNumber != b.SequenceNumber {
		return a.SequenceNumber < b.SequenceNumber
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// OrderTokens sorts tokens into serving order per the ordering policy.
// Every component that needs "who is next" must go through this rather
// than re-deriving an order.
func OrderTokens(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		return Less(&tokens[i], &tokens[j])
	})
}

// FirstWithStatus returns the index of the first token in ordered slice
// order whose status matches, or -1.
func FirstWithStatus(tokens []Token, status TokenStatus) int {
	for i := range tokens {
		if tokens[i].Status == status {
			return i
		}
	}
	return -1
}

// IndexOf returns the position of the token with the given id, or -1.
func IndexOf(tokens []Token, id string) int {
	for i := range tokens {
		if tokens[i].ID == id {
			return i
		}
	}
	return -1
}
