package auth

// QueuedRefreshes reports how many callers wait on the in-flight refresh.
func (s *SessionService) QueuedRefreshes() int {
	return s.refresher.queued()
}

// RefreshInFlight reports whether a refresh is currently running.
func (s *SessionService) RefreshInFlight() bool {
	return s.refresher.inFlight()
}
