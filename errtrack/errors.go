package errtrack

import "errors"

// ErrSinkRejected indicates the aggregation endpoint answered with a
// non-success status.
var ErrSinkRejected = errors.New("errtrack: sink rejected event")
