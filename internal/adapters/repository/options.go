package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithPlayers preloads player identities.
func WithPlayers(players ...Player) Option {
	return func(s *MemoryStore) {
		for _, p := range players {
			s.players[p.ID] = p
		}
	}
}

// WithEvents preloads events.
func WithEvents(events ...Event) Option {
	return func(s *MemoryStore) {
		for _, e := range events {
			s.events[e.ID] = e
		}
	}
}

// WithResults preloads results.
func WithResults(results ...Result) Option {
	return func(s *MemoryStore) {
		for _, r := range results {
			s.results[resultKey{playerID: r.PlayerID, eventID: r.EventID}] = r
		}
	}
}
