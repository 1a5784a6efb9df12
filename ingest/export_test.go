package ingest

// TrackedHosts returns the number of hosts l holds a bucket for.
func (l *DomainLimiter) TrackedHosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}
