// Package filter holds the per-event pass/suppress decisions of a focus
// session.
//
// Everything here is pure: the OS callbacks in package hook translate raw
// hook arguments into KeyEvent and MouseEvent values and delegate to
// Keyboard and Mouse. No function in this package blocks, allocates on the
// hot path, or keeps state between events.
package filter

// Verdict is the outcome of filtering one event.
type Verdict int

const (
	// Pass forwards the event down the hook chain.
	Pass Verdict = iota
	// Suppress consumes the event before any application sees it.
	Suppress
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Suppress:
		return "suppress"
	default:
		return "unknown"
	}
}
