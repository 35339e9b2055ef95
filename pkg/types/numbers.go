package types

import (
	"strconv"
	"time"

	"github.com/cuemby/loadstore/pkg/codec"
)

// Integers and timestamps are stored as decimal octet strings; -1 marks an
// absent value.

func intElement(v int) codec.Element {
	return codec.String(strconv.Itoa(v))
}

func decodeInt(e codec.Element) (int, error) {
	s, err := e.AsString()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func timeElement(t time.Time) codec.Element {
	if t.IsZero() {
		return codec.String("-1")
	}
	return codec.String(strconv.FormatInt(t.Unix(), 10))
}

func decodeTime(e codec.Element) (time.Time, error) {
	s, err := e.AsString()
	if err != nil {
		return time.Time{}, err
	}
	seconds, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if seconds < 0 {
		return time.Time{}, nil
	}
	return time.Unix(seconds, 0).UTC(), nil
}
