package syncer

// Trigger coalesces immediate sync requests. The channel holds at most one
// pending request, so any number of mutations while a cycle is running fold
// into a single follow-up cycle.
type Trigger struct {
	ch chan struct{}
}

func NewTrigger() *Trigger {
	return &Trigger{ch: make(chan struct{}, 1)}
}

// Request asks for a sync cycle as soon as possible. It never blocks; a
// request made while one is already queued is absorbed.
func (t *Trigger) Request() {
	if t == nil {
		return
	}
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

func (t *Trigger) C() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.ch
}
