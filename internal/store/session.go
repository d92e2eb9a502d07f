package store

import (
	"net/url"
	"strings"
	"sync"
)

// Profile is the user shown in the header and the profile dialog.
type Profile struct {
	Name   string
	Email  string
	Avatar string // URL or data URL; empty means generated from the name
}

// AvatarURL returns the avatar to display.
func (p Profile) AvatarURL() string {
	if p.Avatar != "" {
		return p.Avatar
	}
	return DefaultAvatar(p.Name)
}

// Initials returns up to two upper-case initials of the name.
func (p Profile) Initials() string {
	var b strings.Builder
	for _, f := range strings.Fields(p.Name) {
		b.WriteString(strings.ToUpper(string([]rune(f)[:1])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// DefaultAvatar builds a generated avatar URL for name.
func DefaultAvatar(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "8b5cf6")
	q.Set("color", "fff")
	q.Set("size", "128")
	return "https://ui-avatars.com/api/?" + q.Encode()
}

// Session is the state of the single signed-in user: who they are and
// whether they are logged in. The expense list itself lives in Store.
type Session struct {
	mu       sync.RWMutex
	defaults Profile
	profile  Profile
	loggedIn bool
	store    *Store
}

// NewSession starts a logged-in session for the default profile.
func NewSession(defaults Profile, st *Store) *Session {
	return &Session{defaults: defaults, profile: defaults, loggedIn: true, store: st}
}

func (s *Session) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// UpdateProfile changes name and email. Blank values keep the current ones.
func (s *Session) UpdateProfile(name, email string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name = strings.TrimSpace(name); name != "" {
		s.profile.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		s.profile.Email = email
	}
	return s.profile
}

// SetAvatar replaces the avatar image.
func (s *Session) SetAvatar(avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Avatar = avatar
}

// Logout ends the session and drops the user's data.
func (s *Session) Logout() {
	s.mu.Lock()
	s.loggedIn = false
	s.profile = Profile{}
	s.mu.Unlock()
	s.store.Clear()
}

// Login starts a new session with the default profile. The caller is
// expected to reload the expense collection.
func (s *Session) Login() {
	s.mu.Lock()
	s.loggedIn = true
	s.profile = s.defaults
	s.mu.Unlock()
	s.store.SetLoading(true)
}
