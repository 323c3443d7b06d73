package player

import (
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/utils"
)

// session is one playlist's playback state. A new session replaces the
// old one whenever playback starts from a different playlist; goroutines
// holding the old pointer detect staleness by comparing it.
type session struct {
	playlistID string
	songs      []library.Song
	index      int

	shuffle bool
	perm    []int
	cursor  int

	repeat bool
}

func newSession(playlistID string, songs []library.Song, index int) *session {
	return &session{playlistID: playlistID, songs: songs, index: index}
}

func (s *session) current() (library.Song, bool) {
	if s == nil || s.index < 0 || s.index >= len(s.songs) {
		return library.Song{}, false
	}
	return s.songs[s.index], true
}

// jump moves straight to a song the user picked. Under shuffle the
// permutation cursor is re-anchored so forward navigation continues from
// the chosen song.
func (s *session) jump(index int) bool {
	if index < 0 || index >= len(s.songs) {
		return false
	}
	s.index = index
	if s.shuffle {
		s.anchorCursor()
	}
	return true
}

// next picks the following index. explicit distinguishes a user pressing
// next (wraps at the end) from a track finishing on its own (stops at
// the sequential end). Repeat-one pins the index for both triggers.
func (s *session) next(explicit bool) (int, bool) {
	if len(s.songs) == 0 {
		return 0, false
	}
	if s.repeat {
		return s.index, true
	}
	if s.shuffle {
		if s.cursor+1 < len(s.perm) {
			s.cursor++
			s.index = s.perm[s.cursor]
			return s.index, true
		}
		if !explicit {
			return 0, false
		}
		s.reshuffle()
		s.index = s.perm[s.cursor]
		return s.index, true
	}
	if s.index+1 < len(s.songs) {
		s.index++
		return s.index, true
	}
	if !explicit {
		return 0, false
	}
	s.index = 0
	return s.index, true
}

// previous mirrors explicit next: walks the shuffle order backwards or
// steps back sequentially, wrapping to the last song from the first.
// Repeat-one pins the index here too.
func (s *session) previous() (int, bool) {
	if len(s.songs) == 0 {
		return 0, false
	}
	if s.repeat {
		return s.index, true
	}
	if s.shuffle {
		if s.cursor > 0 {
			s.cursor--
		} else {
			s.cursor = len(s.perm) - 1
		}
		s.index = s.perm[s.cursor]
		return s.index, true
	}
	if s.index > 0 {
		s.index--
	} else {
		s.index = len(s.songs) - 1
	}
	return s.index, true
}

// peek returns up to n upcoming indices without moving the session.
func (s *session) peek(n int) []int {
	if s == nil || len(s.songs) == 0 || n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	if s.shuffle {
		for i := s.cursor + 1; i < len(s.perm) && len(out) < n; i++ {
			out = append(out, s.perm[i])
		}
		return out
	}
	for i := s.index + 1; i < len(s.songs) && len(out) < n; i++ {
		out = append(out, i)
	}
	return out
}

// setShuffle toggles shuffle. Enabling it generates a fresh permutation
// anchored at the current song and clears repeat; they are mutually
// exclusive.
func (s *session) setShuffle(on bool) {
	s.shuffle = on
	if on {
		s.repeat = false
		s.reshuffle()
		s.promoteCurrent()
	} else {
		s.perm = nil
		s.cursor = 0
	}
}

func (s *session) setRepeat(on bool) {
	s.repeat = on
	if on && s.shuffle {
		s.setShuffle(false)
		s.repeat = true
	}
}

func (s *session) reshuffle() {
	s.perm = utils.Permutation(len(s.songs))
	s.cursor = 0
}

// promoteCurrent swaps the current song to the permutation's front so
// one full pass still covers every song exactly once.
func (s *session) promoteCurrent() {
	for i, idx := range s.perm {
		if idx == s.index {
			s.perm[0], s.perm[i] = s.perm[i], s.perm[0]
			break
		}
	}
	s.cursor = 0
}

// anchorCursor points the cursor at the current song's slot so the walk
// continues from here instead of restarting.
func (s *session) anchorCursor() {
	for i, idx := range s.perm {
		if idx == s.index {
			s.cursor = i
			return
		}
	}
	s.cursor = 0
}
