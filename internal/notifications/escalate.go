package notifications

// ShouldEscalate decides whether a result warrants a secondary low-score
// alert. Strict inequality: a percentage exactly at the threshold does not
// escalate. Escalation applies to completed results only.
func (d *Dispatcher) ShouldEscalate(kind Kind, percentage int) bool {
	return kind == KindResultCompleted && percentage < d.opts.LowScoreThreshold
}
