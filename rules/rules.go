//go:build ruleguard

// Package gorules holds project lint rules for the gocritic ruleguard checker.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StdlibLogging flags the standard log package outside main and tests.
// Use the module logger from internal/logger so output reaches the configured handlers.
func StdlibLogging(m dsl.Matcher) {
	m.Import("log")

	m.Match(
		`log.Printf($*_)`,
		`log.Println($*_)`,
		`log.Print($*_)`,
		`log.Fatalf($*_)`,
		`log.Fatal($*_)`,
	).
		Where(!m.File().Name.Matches(`_test\.go$`) && !m.File().PkgPath.Matches(`^github\.com/tphakala/tagtrack$`)).
		Report(`use a module logger from internal/logger instead of the standard log package`)
}

// DetectionTimeLocal flags conversions of detection timestamps to local time.
// Hour histograms and exports are UTC.
func DetectionTimeLocal(m dsl.Matcher) {
	m.Match(`$r.Timestamp.Local()`).
		Where(m["r"].Type.Is("detection.Record") || m["r"].Type.Is("*detection.Record")).
		Report(`detection timestamps are UTC, do not convert with Local()`)

	m.Match(`$r.Timestamp.Hour()`).
		Where(m["r"].Type.Is("detection.Record") || m["r"].Type.Is("*detection.Record")).
		Report(`use $r.Timestamp.UTC().Hour() so the bucket does not depend on the parsed location`).
		Suggest(`$r.Timestamp.UTC().Hour()`)
}

// MagicDateTime flags literal layouts that have named constants since Go 1.20.
func MagicDateTime(m dsl.Matcher) {
	m.Match(`$t.Format("2006-01-02 15:04:05")`).
		Report(`use $t.Format(time.DateTime)`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(`time.Parse("2006-01-02 15:04:05", $s)`).
		Report(`use time.Parse(time.DateTime, $s)`).
		Suggest(`time.Parse(time.DateTime, $s)`)

	m.Match(`time.Parse("2006-01-02", $s)`).
		Report(`use time.Parse(time.DateOnly, $s)`).
		Suggest(`time.Parse(time.DateOnly, $s)`)
}

// TestingContext flags context.Background() in tests, t.Context() is canceled with the test.
func TestingContext(m dsl.Matcher) {
	m.Match(`context.Background()`, `context.TODO()`).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report(`use t.Context() in tests`)
}

// WaitGroupGo flags the Add/Done pattern that sync.WaitGroup.Go replaces.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`).
		Where(m["wg"].Type.Is("sync.WaitGroup") || m["wg"].Type.Is("*sync.WaitGroup")).
		Report(`use $wg.Go(func() { ... })`).
		Suggest(`$wg.Go(func() { $body })`)
}

// UnwrappedErrorf flags fmt.Errorf that formats an error with %v, losing the chain.
func UnwrappedErrorf(m dsl.Matcher) {
	m.Match(`fmt.Errorf($f, $*_, $err)`).
		Where(m["err"].Type.Implements("error") && m["f"].Text.Matches(`%v"$`)).
		Report(`wrap the error with %w so errors.Is and errors.As see it`)
}
