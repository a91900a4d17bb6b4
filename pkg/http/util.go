package http

import (
	"time"

	xutil "BtcEdge/pkg/util"
)

// ParseTime accepts RFC3339, RFC3339Nano or unix seconds. Query params on
// the candle endpoints arrive in either form.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

// ParseTimeDefault parses a timestamp or falls back to def.
func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
