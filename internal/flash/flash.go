// Package flash carries one-shot user messages across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

// CookieName is the name of the flash cookie.
const CookieName = "flash"

// Message categories, used as Bootstrap alert classes by the templates.
const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

// Message is a single flash message.
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Set queues messages for the next page render, replacing any queued before
// in this response.
func Set(w http.ResponseWriter, messages ...Message) {
	data, err := json.Marshal(messages)
	if err != nil {
		logger.Log.Errorw("failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Add queues a single message.
func Add(w http.ResponseWriter, category, text string) {
	Set(w, Message{Category: category, Text: text})
}

// Pop returns the queued messages and clears the cookie. A malformed cookie
// yields no messages.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil
	}
	return messages
}
