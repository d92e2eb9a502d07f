package http

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"expensetracker/internal/log"
)

const (
	maxAvatarBytes  = 2 << 20
	maxNameLength   = 100
	profileTemplate = "profile_update"
)

// handleUpdateProfile changes name and email and answers with the profile
// panel plus an out-of-band refresh of the header chip.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoggedIn() {
		s.redirectHome(w, r)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	name := p.Get("name")
	email := p.Get("email")

	if utf8.RuneCountInString(name) > maxNameLength {
		rejectProfile(w, "Name is too long")
		return
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			rejectProfile(w, "Invalid email address")
			return
		}
	}

	profile := s.session.UpdateProfile(name, email)
	s.logger.InfoContext(r.Context(), "Profile updated", "name", profile.Name)

	s.writeProfile(w, r, NewHTMXResponse().
		TriggerProfileUpdated().
		TriggerSuccessNotification("Profile saved"))
}

// handleUploadAvatar stores an uploaded image (at most 2 MiB) as a data
// URL on the profile.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoggedIn() {
		s.redirectHome(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+64<<10)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		rejectProfile(w, "Image must be at most 2 MiB")
		return
	}
	file, _, err := r.FormFile("avatar")
	if err != nil {
		rejectProfile(w, "No image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Avatar read error", "error", err)
		rejectProfile(w, "Could not read image")
		return
	}
	if len(data) > maxAvatarBytes {
		rejectProfile(w, "Image must be at most 2 MiB")
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		rejectProfile(w, "Avatar must be an image")
		return
	}

	s.session.SetAvatar("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data))
	s.logger.InfoContext(r.Context(), "Avatar updated", "content_type", contentType, "bytes", len(data))

	s.writeProfile(w, r, NewHTMXResponse().
		TriggerProfileUpdated().
		TriggerSuccessNotification("Avatar updated"))
}

// handleLogout ends the session and clears the store.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout()
	s.views.Purge()
	s.logger.InfoContext(r.Context(), "User logged out", log.FieldOperation, "logout")
	s.redirectHome(w, r)
}

// handleLogin starts a fresh session and reloads the collection in the
// background.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.session.Login()
	s.reload(r.Context())
	s.logger.InfoContext(r.Context(), "User logged in", log.FieldOperation, "login")
	s.redirectHome(w, r)
}

func (s *Server) writeProfile(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	profile := s.session.Profile()
	data := pageData{Theme: s.theme, Profile: profile, Avatar: avatarSrc(profile)}
	html, err := s.renderHTML(r.Context(), profileTemplate, data)
	if err != nil {
		InternalServerError("Error rendering profile").Write(w)
		return
	}
	b.BodyHTML(html).Write(w)
}

func rejectProfile(w http.ResponseWriter, msg string) {
	UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
}
