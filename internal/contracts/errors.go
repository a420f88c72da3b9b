package contracts

import "errors"

// Shared error taxonomy.
//
// ErrInvalidParameter aborts a run before any network call. ErrSourceUnavailable
// is fatal for the whole ranked-list fetch it wraps. ErrTickDataMissing is a
// per-candidate condition: the caller records the candidate as NONE with a
// missing-data marker and continues the batch. An empty result set is never
// an error; the output table is simply written with a header only.
var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrSourceUnavailable = errors.New("market data source unavailable")
	ErrTickDataMissing   = errors.New("tick data missing")
)
