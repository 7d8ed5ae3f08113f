package pool

// check panics when an instrumented build detects a broken precondition or
// internal invariant. Release builds compile the call away.
func check(cond bool, msg string) {
	if debugChecks && !cond {
		panic("pool: " + msg)
	}
}
