// Package envcfg resolves small scalar settings from environment variables,
// following the resolution order used throughout this module: an explicit
// value wins, then the first environment variable that is set and parses,
// then a hardcoded default. It never logs and never fails — a present but
// unparsable value is treated as absent, so callers always get a usable
// result.
package envcfg

import (
	"os"
	"strconv"
	"time"
)

// Duration resolves the first of names that is set to a valid
// time.ParseDuration string, falling back to def.
func Duration(def time.Duration, names ...string) time.Duration {
	for _, name := range names {
		raw, ok := os.LookupEnv(name)
		if !ok || "" == raw {
			continue
		}
		d, err := time.ParseDuration(raw)
		if nil != err {
			continue
		}
		return d
	}
	return def
}

// Int resolves the first of names that is set to a valid base-10 integer,
// falling back to def.
func Int(def int, names ...string) int {
	for _, name := range names {
		raw, ok := os.LookupEnv(name)
		if !ok || "" == raw {
			continue
		}
		n, err := strconv.Atoi(raw)
		if nil != err {
			continue
		}
		return n
	}
	return def
}

// String resolves the first of names that is set to a non-empty value,
// falling back to def.
func String(def string, names ...string) string {
	for _, name := range names {
		if raw, ok := os.LookupEnv(name); ok && "" != raw {
			return raw
		}
	}
	return def
}
