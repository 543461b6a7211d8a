package app

// Test-only hooks for package app_test.

var NewClientLocks = newClientLocks

func (c *clientLocks) Len() int { return c.len() }
