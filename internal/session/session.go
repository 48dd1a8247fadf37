// Package session keeps the logged-in user and pending flash messages in a
// signed and encrypted cookie.
package session

import (
	"crypto/sha256"
	"net/http"

	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/logger"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

const (
	CookieName = "ambulancewatch_session"
	maxAge     = 30 * 24 * 60 * 60 // 30 days

	LevelSuccess = "success"
	LevelError   = "error"
)

// Data is everything stored in the session cookie.
type Data struct {
	UserID   int64              `json:"uid,omitempty"`
	Username string             `json:"user,omitempty"`
	Flashes  []dto.FlashMessage `json:"flashes,omitempty"`
}

// Authenticated reports whether a user is logged in.
func (d Data) Authenticated() bool {
	return d.UserID != 0
}

// Manager encodes and decodes session cookies.
type Manager struct {
	codec *securecookie.SecureCookie
}

// NewManager builds a Manager from the configured keys. Missing keys are
// generated, which means sessions do not survive a restart.
func NewManager(hashKey, blockKey string, logger *logger.Logger) *Manager {
	hash := []byte(hashKey)
	if len(hash) == 0 {
		logger.Warning("SESSION_HASH_KEY not set - using a random key, sessions will not survive restarts")
		hash = securecookie.GenerateRandomKey(64)
	}

	var block []byte
	if blockKey != "" {
		// AES needs 16, 24 or 32 bytes
		sum := sha256.Sum256([]byte(blockKey))
		block = sum[:]
	} else {
		block = securecookie.GenerateRandomKey(32)
	}

	codec := securecookie.New(hash, block)
	codec.MaxAge(maxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Manager{codec: codec}
}

// Load returns the session of r. A missing or tampered cookie yields an empty session.
func (m *Manager) Load(r *http.Request) Data {
	var d Data
	c, err := r.Cookie(CookieName)
	if err != nil {
		return d
	}
	if err := m.codec.Decode(CookieName, c.Value, &d); err != nil {
		return Data{}
	}
	return d
}

// Save writes d as the session cookie.
func (m *Manager) Save(w http.ResponseWriter, d Data) error {
	encoded, err := m.codec.Encode(CookieName, d)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Login stores the user in the session and queues a flash message.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID int64, username, flash string) error {
	d := m.Load(r)
	d.UserID = userID
	d.Username = username
	d.Flashes = append(d.Flashes, dto.FlashMessage{Level: LevelSuccess, Text: flash})
	return m.Save(w, d)
}

// Logout drops the user but keeps pending flashes plus the new one.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request, flash string) error {
	d := m.Load(r)
	return m.Save(w, Data{Flashes: append(d.Flashes, dto.FlashMessage{Level: LevelSuccess, Text: flash})})
}

// AddFlash queues a message for the next page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, level, text string) error {
	d := m.Load(r)
	d.Flashes = append(d.Flashes, dto.FlashMessage{Level: level, Text: text})
	return m.Save(w, d)
}

// PopFlashes returns pending messages and removes them from the session.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) ([]dto.FlashMessage, error) {
	d := m.Load(r)
	flashes := d.Flashes
	if len(flashes) == 0 {
		return []dto.FlashMessage{}, nil
	}
	d.Flashes = nil
	return flashes, m.Save(w, d)
}
