package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"ljdl/pkg/errors"
	"ljdl/pkg/livejournal"
	"ljdl/pkg/logger"
)

// Session is the anonymous session shared by every RPC call of a run
type Session = livejournal.Session

// Authenticator performs the two step session handshake
type Authenticator struct {
	httpClient *http.Client
	authURL    string
	userAgent  string
	logger     logger.Logger
}

// NewAuthenticator creates an authenticator using hc for transport
func NewAuthenticator(hc *http.Client, authURL, userAgent string, log logger.Logger) *Authenticator {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		httpClient: hc,
		authURL:    authURL,
		userAgent:  userAgent,
		logger:     log,
	}
}

// Authenticate obtains the session cookies, then the auth token embedded in the target page
func (a *Authenticator) Authenticate(ctx context.Context, target *livejournal.Target) (*Session, error) {
	log := a.logger.WithField("user", target.Username)

	log.Debug("requesting session cookies")
	luid, ljuniq, err := a.sessionCookies(ctx)
	if err != nil {
		return nil, err
	}

	session := &Session{LUID: luid, LJUniq: ljuniq}

	log.Debug("requesting auth token")
	token, err := a.authToken(ctx, target, session)
	if err != nil {
		return nil, err
	}
	session.AuthToken = token

	log.Info("session established")
	return session, nil
}

// sessionCookies reads luid from the response cookies and ljuniq from the
// cookies or, failing that, the JSON body
func (a *Authenticator) sessionCookies(ctx context.Context) (string, string, error) {
	authURL, err := url.Parse(a.authURL)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrorTypeAuth, err, "invalid auth URL %q", a.authURL)
	}

	// A jar keeps cookies set on redirects
	jar, _ := cookiejar.New(nil)
	hc := *a.httpClient
	hc.Jar = jar

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.authURL, nil)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrorTypeAuth, err, "failed to create auth request")
	}
	a.setHeaders(req)

	resp, err := hc.Do(req)
	if err != nil {
		return "", "", errors.Wrap(errors.ErrorTypeNetwork, err, "auth request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &errors.Error{Type: errors.ErrorTypeAuth, Message: "auth endpoint refused the request", Code: resp.StatusCode}
	}

	cookies := make(map[string]string)
	for _, c := range jar.Cookies(authURL) {
		cookies[c.Name] = c.Value
	}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}

	ljuniq := cookies["ljuniq"]
	if ljuniq == "" {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", "", errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read auth response")
		}
		var payload struct {
			LJUniq string `json:"ljuniq"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", "", errors.Wrap(errors.ErrorTypeAuth, err, "can't get 'ljuniq' cookie")
		}
		ljuniq = payload.LJUniq
	}
	if ljuniq == "" {
		return "", "", errors.Auth("can't get 'ljuniq' cookie")
	}

	luid := cookies["luid"]
	if luid == "" {
		return "", "", errors.Auth("can't get 'luid' cookie")
	}

	return luid, ljuniq, nil
}

func (a *Authenticator) authToken(ctx context.Context, target *livejournal.Target, session *Session) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeAuth, err, "failed to create page request")
	}
	a.setHeaders(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for _, c := range session.Cookies() {
		req.AddCookie(c)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeNetwork, err, "page request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: fmt.Sprintf("journal page %s refused the request", target.URL),
			Code:    resp.StatusCode,
		}
	}

	return ExtractAuthToken(resp.Body)
}

func (a *Authenticator) setHeaders(req *http.Request) {
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
