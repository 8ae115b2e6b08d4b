package store

import "math"

// RequestToken identifies one issued request. The zero token is untracked
// and always commits.
type RequestToken uint64

const invalidated = RequestToken(math.MaxUint64)

// requestTokens records the latest token issued per slot. It is a value
// type so reducers copy it with the state.
type requestTokens [slotCount]RequestToken

func (t requestTokens) begin(op Op, tok RequestToken) requestTokens {
	if tok != 0 && op.tracked() {
		t[op.slot()] = tok
	}
	return t
}

// current reports whether tok may still commit for op.
func (t requestTokens) current(op Op, tok RequestToken) bool {
	return tok == 0 || !op.tracked() || t[op.slot()] == tok
}

func (t requestTokens) invalidate(slots ...slot) requestTokens {
	for _, s := range slots {
		t[s] = invalidated
	}
	return t
}
