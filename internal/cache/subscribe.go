package cache

// Subscribe returns a buffered channel that receives every change
func (s *Store) Subscribe() chan Change {
	ch := make(chan Change, 64)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (s *Store) Unsubscribe(ch chan Change) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Store) publish(c Change) {
	s.subMu.RLock()
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
			// subscriber is behind; views re-read the whole list anyway
		}
	}
	s.subMu.RUnlock()
}
