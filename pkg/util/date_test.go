package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}
func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 3, 30, 0, time.UTC)
	to := time.Date(2024, 10, 10, 11, 58, 1, 0, time.UTC)
	gotFrom, gotTo := AlignFromTo(from, to, "5m")
	if gotFrom.Minute() != 0 || gotTo.Minute() != 55 {
		t.Fatalf("unexpected alignment %v %v", gotFrom, gotTo)
	}
}

func TestUTCDateKey(t *testing.T) {
	ms := time.Date(2024, 10, 10, 23, 59, 59, 0, time.UTC).UnixMilli()
	if got := UTCDateKey(ms); got != "2024-10-10" {
		t.Fatalf("unexpected key %q", got)
	}
	// next candle crosses into the next UTC day
	if got := UTCDateKey(ms + 1000); got != "2024-10-11" {
		t.Fatalf("unexpected key %q", got)
	}
}
