package telegram

import "sync"

// session is what the bot remembers about one chat.
type session struct {
	Language string
	Provider string
	Lat, Lon *float64
}

func (s session) hasLocation() bool { return s.Lat != nil && s.Lon != nil }

// Sessions is per-chat state. Values are copied on every update.
type Sessions struct {
	m sync.Map // chatID -> session
}

func (s *Sessions) Get(chatID int64) session {
	if v, ok := s.m.Load(chatID); ok {
		return v.(session)
	}
	return session{}
}

// Update applies fn to a copy of the chat's session and stores the result.
func (s *Sessions) Update(chatID int64, fn func(*session)) {
	for {
		old, loaded := s.m.Load(chatID)
		var cur session
		if loaded {
			cur = old.(session)
		}
		next := cur
		fn(&next)
		if !loaded {
			if _, exists := s.m.LoadOrStore(chatID, next); !exists {
				return
			}
			continue
		}
		if s.m.CompareAndSwap(chatID, old, next) {
			return
		}
	}
}
