package app

// Subscribe returns a channel that receives a Snapshot after every change,
// starting with the current one. The caller must invoke the returned cancel
// function to avoid leaks.
func (r *Reviewer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	ch <- r.snapshotLocked()
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked fans the current state out to subscribers. A slow subscriber
// loses its oldest pending snapshot rather than blocking the reviewer.
func (r *Reviewer) notifyLocked() {
	if len(r.subscribers) == 0 {
		return
	}
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
