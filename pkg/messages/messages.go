// Package messages carries one-shot notification messages across a
// redirect, in the style of Django's messages framework. Messages queued
// while handling a request are stored in a cookie and drained on the next
// page render through the get_messages template global.
package messages

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// Level classifies a message. The numeric values match Django's so that
// templates filtering on level keep working unchanged.
type Level int

const (
	LevelDebug   Level = 10
	LevelInfo    Level = 20
	LevelSuccess Level = 25
	LevelWarning Level = 30
	LevelError   Level = 40
)

// Tag returns the CSS-friendly name for a level.
func (l Level) Tag() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Message is one queued notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"message"`
}

// Map returns the template-visible view of a message.
func (m Message) Map() map[string]any {
	return map[string]any{
		"level":     int(m.Level),
		"level_tag": m.Level.Tag(),
		"message":   m.Text,
	}
}

// Store accumulates messages while a request is being handled. It is
// request-scoped and not safe for sharing across requests.
type Store struct {
	msgs []Message
}

// Add queues a message at the given level.
func (s *Store) Add(level Level, text string) {
	s.msgs = append(s.msgs, Message{Level: level, Text: text})
}

// Debug queues a debug-level message.
func (s *Store) Debug(text string) { s.Add(LevelDebug, text) }

// Info queues an info-level message.
func (s *Store) Info(text string) { s.Add(LevelInfo, text) }

// Success queues a success-level message.
func (s *Store) Success(text string) { s.Add(LevelSuccess, text) }

// Warning queues a warning-level message.
func (s *Store) Warning(text string) { s.Add(LevelWarning, text) }

// Error queues an error-level message.
func (s *Store) Error(text string) { s.Add(LevelError, text) }

// Flush returns the queued messages and empties the store.
func (s *Store) Flush() []Message {
	msgs := s.msgs
	s.msgs = nil
	return msgs
}

const cookieName = "messages"

// SetCookie writes the queued messages into the response cookie. A store
// with nothing queued clears the cookie instead.
func SetCookie(w http.ResponseWriter, s *Store) {
	msgs := s.Flush()
	if len(msgs) == 0 {
		return
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}

// FromRequest reads queued messages off the request cookie and expires the
// cookie so each message renders once. A missing or malformed cookie
// yields no messages.
func FromRequest(w http.ResponseWriter, r *http.Request) []Message {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	data, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err = json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
