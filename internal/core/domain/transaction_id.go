package domain

import (
	"fmt"
	"strconv"
)

const (
	attemptOffset = 25
	attemptWidth  = 5
)

// TransactionID is a processor payment id. The characters from
// attemptOffset onwards hold a zero-padded retry attempt counter.
type TransactionID struct {
	Prefix  string
	Attempt int
}

// ParseTransactionID splits raw into prefix and attempt counter. ok is false
// when raw is too short or the counter is not numeric.
func ParseTransactionID(raw string) (TransactionID, bool) {
	if len(raw) <= attemptOffset {
		return TransactionID{}, false
	}
	attempt, err := strconv.Atoi(raw[attemptOffset:])
	if err != nil || attempt < 0 {
		return TransactionID{}, false
	}
	return TransactionID{Prefix: raw[:attemptOffset], Attempt: attempt}, true
}

// NextAttempt returns the id the processor assigns to the following attempt.
func (t TransactionID) NextAttempt() TransactionID {
	return TransactionID{Prefix: t.Prefix, Attempt: t.Attempt + 1}
}

func (t TransactionID) String() string {
	return fmt.Sprintf("%s%0*d", t.Prefix, attemptWidth, t.Attempt)
}

// HasNewerAttempt reports whether ids contains the next attempt of raw.
func HasNewerAttempt(raw string, ids []string) bool {
	current, ok := ParseTransactionID(raw)
	if !ok {
		return false
	}
	next := current.NextAttempt().String()
	for _, id := range ids {
		if id == next {
			return true
		}
	}
	return false
}
