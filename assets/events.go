package assets

// event is a unit of work handed to the render thread. discard runs instead
// of apply when the manager is destroyed before the event is processed.
type event struct {
	apply   func()
	discard func()
}

// Post queues fn to run during the next ProcessEvents. It is the only
// Manager method that is safe to call from any goroutine. Functions posted
// after Destroy are dropped.
func (m *Manager) Post(fn func()) {
	m.post(fn, nil)
}

func (m *Manager) post(apply, discard func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if discard != nil {
			discard()
		}
		return
	}
	m.queue = append(m.queue, event{apply: apply, discard: discard})
	m.mu.Unlock()
}

// ProcessEvents runs everything queued by Post and by finished loads, in
// order, and reports how many events ran.
func (m *Manager) ProcessEvents() int {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, ev := range queue {
		ev.apply()
	}
	return len(queue)
}
