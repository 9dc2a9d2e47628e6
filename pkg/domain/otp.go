package domain

import "time"

// OTPState tracks an in-flight password recovery cycle. A nil *OTPState
// means no cycle is active. Verified authorizes exactly one password
// change; the whole state is cleared by that change.
type OTPState struct {
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
}

// Expired reports whether the cycle's code is past its expiry.
func (o *OTPState) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Equal compares two states field by field. Both nil counts as equal.
// Used by stores to implement compare-and-set on the whole state.
func (o *OTPState) Equal(other *OTPState) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.CodeHash == other.CodeHash &&
		o.ExpiresAt.Equal(other.ExpiresAt) &&
		o.Attempts == other.Attempts &&
		o.Verified == other.Verified
}

// Clone returns a copy, safe to mutate independently.
func (o *OTPState) Clone() *OTPState {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
