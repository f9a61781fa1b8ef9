package journal

import "time"

// clockFn is the journal's injectable clock seam, mirroring the clock
// func() time.Time field store/ledger/file_ledger.go carries so tests can
// pin timestamps. Production code reads the time through nowUTC.
var clockFn = time.Now

func nowUTC() time.Time {
	return clockFn().UTC()
}
