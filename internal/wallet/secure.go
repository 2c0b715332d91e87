package wallet

import "sync"

// secureBytes holds key material. The backing memory is locked against swapping
// where the platform allows it and is zeroed on Destroy.
type secureBytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// newSecureBytes moves src into locked memory and zeroes src.
func newSecureBytes(src []byte) *secureBytes {
	data := make([]byte, len(src))
	s := &secureBytes{data: data, locked: mlock(data)}
	copy(data, src)
	zero(src)
	return s
}

// Bytes returns the held slice, or nil after Destroy.
func (s *secureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Locked reports whether the memory was mlocked.
func (s *secureBytes) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy zeroes and unlocks the memory. Safe to call more than once.
func (s *secureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return
	}
	zero(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil
}
