//go:build !pooldebug

package pool

// debugChecks gates the O(1) precondition and bookkeeping checks. The
// compiler removes the guarded code entirely in default builds.
const debugChecks = false
