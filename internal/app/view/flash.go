package view

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const flashCookieName = "quizhub_flash"

const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

type Flash struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// QueueFlashes appends notices to the flash cookie. They are delivered on
// the next rendered page and then cleared. Notices queued earlier in the
// same response are preserved, so a handler may flash several times.
func QueueFlashes(w http.ResponseWriter, r *http.Request, flashes ...Flash) {
	if len(flashes) == 0 {
		return
	}
	queued, pending := pendingFlashes(w)
	if !pending {
		queued = readFlashes(r)
	}
	writeFlashCookie(w, append(queued, flashes...))
}

func AddFlash(w http.ResponseWriter, r *http.Request, message, level string) {
	QueueFlashes(w, r, Flash{Message: message, Level: level})
}

// PopFlashes drains the queue: it returns the pending notices and expires
// the cookie so delivery is at-most-once.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) > 0 {
		writeCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
	return flashes
}

func readFlashes(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return decodeFlashes(c.Value)
}

// pendingFlashes recovers the queue already written onto this response, so
// a second queue call in the same request does not overwrite the first.
func pendingFlashes(w http.ResponseWriter) ([]Flash, bool) {
	for _, h := range w.Header().Values("Set-Cookie") {
		if !strings.HasPrefix(h, flashCookieName+"=") {
			continue
		}
		value := strings.TrimPrefix(h, flashCookieName+"=")
		if i := strings.IndexByte(value, ';'); i >= 0 {
			value = value[:i]
		}
		return decodeFlashes(value), true
	}
	return nil, false
}

func decodeFlashes(value string) []Flash {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

func writeFlashCookie(w http.ResponseWriter, flashes []Flash) {
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	writeCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeCookie replaces any flash Set-Cookie header already on the response
// instead of stacking another one.
func writeCookie(w http.ResponseWriter, c *http.Cookie) {
	var kept []string
	for _, h := range w.Header().Values("Set-Cookie") {
		if !strings.HasPrefix(h, flashCookieName+"=") {
			kept = append(kept, h)
		}
	}
	w.Header().Del("Set-Cookie")
	for _, h := range kept {
		w.Header().Add("Set-Cookie", h)
	}
	http.SetCookie(w, c)
}
