package opinions

import (
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/views"
)

const (
	sessionName      = "opinions_session"
	flashSessionName = "opinions_flash"

	keyUserID     = "user_id"
	keySignedInAt = "signed_in_at"
)

// cookieSession is the auth.Session of one request, backed by a signed
// cookie.
type cookieSession struct {
	c echo.Context
}

func requestSession(c echo.Context) auth.Session {
	return cookieSession{c: c}
}

func (s cookieSession) get() (*sessions.Session, error) {
	return session.Get(sessionName, s.c)
}

func (s cookieSession) UserID() string {
	sess, err := s.get()
	if err != nil {
		return ""
	}
	id, _ := sess.Values[keyUserID].(string)
	return id
}

func (s cookieSession) SignedInAt() time.Time {
	sess, err := s.get()
	if err != nil {
		return time.Time{}
	}
	at, _ := sess.Values[keySignedInAt].(int64)
	return time.Unix(at, 0)
}

func (s cookieSession) Start(userID string, at time.Time) error {
	sess, err := s.get()
	if err != nil && sess == nil {
		return err
	}
	sess.Values[keyUserID] = userID
	sess.Values[keySignedInAt] = at.Unix()
	return sess.Save(s.c.Request(), s.c.Response())
}

func (s cookieSession) Clear() error {
	sess, err := s.get()
	if err != nil && sess == nil {
		return err
	}
	delete(sess.Values, keyUserID)
	delete(sess.Values, keySignedInAt)
	sess.Options.MaxAge = -1
	return sess.Save(s.c.Request(), s.c.Response())
}

// flash queues a notice for the next rendered page.
func flash(c echo.Context, kind, text string) {
	sess, err := session.Get(flashSessionName, c)
	if err != nil && sess == nil {
		c.Logger().Warnf("flash: %v", err)
		return
	}
	sess.AddFlash(kind + "|" + text)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("flash: save: %v", err)
	}
}

// takeFlashes drains queued notices.
func takeFlashes(c echo.Context) []views.Notice {
	sess, err := session.Get(flashSessionName, c)
	if err != nil || sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("flash: save: %v", err)
	}
	notices := make([]views.Notice, 0, len(raw))
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		kind, text, found := strings.Cut(s, "|")
		if !found {
			kind, text = views.NoticeSuccess, s
		}
		notices = append(notices, views.Notice{Kind: kind, Text: text})
	}
	return notices
}
