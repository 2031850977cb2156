package renderer

// Clock measures shader time in seconds. Time does not advance while paused.
type Clock struct {
	start       float64
	pausedAt    float64
	totalPaused float64
	paused      bool
}

// Start resets the clock to zero at now.
func (c *Clock) Start(now float64) {
	*c = Clock{start: now}
}

// Elapsed returns the running time at now, excluding paused intervals.
func (c *Clock) Elapsed(now float64) float64 {
	if c.paused {
		now = c.pausedAt
	}
	return now - c.start - c.totalPaused
}

func (c *Clock) Pause(now float64) {
	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = now
}

func (c *Clock) Resume(now float64) {
	if !c.paused {
		return
	}
	c.totalPaused += now - c.pausedAt
	c.paused = false
}

func (c *Clock) Paused() bool {
	return c.paused
}
