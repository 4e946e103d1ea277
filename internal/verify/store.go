package verify

import (
	"encoding/json"
	"fmt"
	"os"
)

// User is an immutable record loaded once at startup; read-only during
// conversations.
type User struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Last4  string `json:"last4"`
	DOB    string `json:"dob"` // YYYY-MM-DD
}

// Directory holds the loaded user records.
type Directory struct {
	users []User
}

// NewDirectory wraps an in-memory record set, mainly for tests.
func NewDirectory(users []User) *Directory {
	return &Directory{users: users}
}

// LoadDirectory reads user records from a JSON file.
func LoadDirectory(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user directory: %w", err)
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user directory: %w", err)
	}

	return &Directory{users: users}, nil
}

// Len returns the record count.
func (d *Directory) Len() int {
	return len(d.users)
}

// Match finds a record whose mobile equals mobile and whose last4 or
// date-of-birth equals the extracted value. Either secondary factor suffices:
// this is a deliberate single-factor-of-two policy, not two-factor.
func (d *Directory) Match(mobile, last4, dob string) (*User, bool) {
	for i := range d.users {
		u := &d.users[i]
		if u.Mobile != mobile {
			continue
		}
		if last4 != "" && u.Last4 == last4 {
			return u, true
		}
		if dob != "" && u.DOB == dob {
			return u, true
		}
	}
	return nil, false
}

// Session tracks one caller's verification progress. It spans from the first
// mobile-collection attempt until verification succeeds or the attempt cap
// is exceeded, then resets.
type Session struct {
	PendingMobile string
	Attempts      int
}

// Reset clears the session for a fresh verification flow.
func (s *Session) Reset() {
	s.PendingMobile = ""
	s.Attempts = 0
}
