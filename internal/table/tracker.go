package table

// tracker walks a cursor from a start seat to a stop seat, one confirmation
// at a time. Both cut rounds and the cut relay are bounded by the last seat.
type tracker struct {
	active int
	last   *int
	stop   int
}

func newTracker(start, stop int) *tracker {
	return &tracker{active: start, stop: stop}
}

// done is true once the stop cursor has been confirmed.
func (t *tracker) done() bool {
	return t.last != nil && *t.last == t.stop
}

// advance moves past the active cursor. It returns the new active cursor and
// whether that cursor should be solicited.
func (t *tracker) advance() (int, bool) {
	last := t.active
	t.last = &last
	t.active++
	return t.active, !t.done()
}
