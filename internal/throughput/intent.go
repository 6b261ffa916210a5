package throughput

// Intent is the provisioning-mode migration a commit must issue, if any.
type Intent string

const (
	IntentNone        Intent = "none"
	IntentToAutoscale Intent = "toAutoscale"
	IntentToManual    Intent = "toManual"
)

// Decide compares the draft and baseline modes. A migration replaces the
// plain throughput write for that commit.
func Decide(draftIsAutoscale, baselineIsAutoscale bool) Intent {
	switch {
	case draftIsAutoscale == baselineIsAutoscale:
		return IntentNone
	case draftIsAutoscale:
		return IntentToAutoscale
	default:
		return IntentToManual
	}
}

// IsMigration reports whether the intent requires a migration call.
func (i Intent) IsMigration() bool {
	return i == IntentToAutoscale || i == IntentToManual
}
