// Package netaccesstest provides an in-process imitation of the network-access portal for tests
package netaccesstest

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"html"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// SessionCookie is the name of the cookie carrying the fake portal's session token
const SessionCookie = "netaccess_session"

// Request represents a request received by the fake portal
type Request struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies []*http.Cookie
	Form    url.Values
}

// Cookie returns the value of the named cookie the request carried
func (req Request) Cookie(name string) (string, bool) {
	for _, cookie := range req.Cookies {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

// Approval represents a machine approval accepted by the fake portal
type Approval struct {
	Username string
	IP       string
	Duration string
	Form     url.Values
}

// Response overrides the portal's answer to a route
type Response struct {
	Status int
	Body   string
	Header http.Header
}

// Portal imitates the portal's login and approval forms.
// Use New to start one and Close to shut it down.
type Portal struct {
	Username string
	Password string

	server   *httptest.Server
	sessions *sessionStore

	mtx       sync.Mutex
	overrides map[string]Response
	requests  []Request
	approvals []Approval
}

// New starts a fake portal accepting the given credentials
func New(username, password string) *Portal {
	sessions, err := newSessionStore()
	if err != nil {
		panic(err)
	}
	portal := &Portal{
		Username:  username,
		Password:  password,
		sessions:  sessions,
		overrides: make(map[string]Response),
	}

	router := chi.NewRouter()
	router.Use(portal.record, portal.override)
	router.Get("/", portal.handleRoot)
	router.Post("/account/login", portal.handleLogin)
	router.Get("/account/approve", portal.handleApproveForm)
	router.Post("/account/approve", portal.handleApprove)

	portal.server = httptest.NewServer(router)
	return portal
}

// URL returns the base URL of the fake portal
func (portal *Portal) URL() string {
	return portal.server.URL
}

// Close shuts the fake portal down
func (portal *Portal) Close() {
	portal.server.Close()
}

// Override makes the portal answer every request to the given route with a fixed response
func (portal *Portal) Override(method, path string, status int, body string) {
	portal.OverrideResponse(method, path, Response{Status: status, Body: body})
}

// OverrideResponse makes the portal answer every request to the given route with a fixed response
func (portal *Portal) OverrideResponse(method, path string, resp Response) {
	portal.mtx.Lock()
	defer portal.mtx.Unlock()
	portal.overrides[method+" "+path] = resp
}

// Requests returns all requests received so far
func (portal *Portal) Requests() []Request {
	portal.mtx.Lock()
	defer portal.mtx.Unlock()
	return append([]Request(nil), portal.requests...)
}

// RequestsTo returns all requests received so far for a specific route
func (portal *Portal) RequestsTo(method, path string) []Request {
	var matching []Request
	for _, req := range portal.Requests() {
		if req.Method == method && req.Path == path {
			matching = append(matching, req)
		}
	}
	return matching
}

// Approvals returns all approvals accepted so far
func (portal *Portal) Approvals() []Approval {
	portal.mtx.Lock()
	defer portal.mtx.Unlock()
	return append([]Approval(nil), portal.approvals...)
}

// LoggedInSessions returns the amount of sessions the configured user is logged in with
func (portal *Portal) LoggedInSessions() int {
	n, err := portal.sessions.countAuthenticated(portal.Username)
	if err != nil {
		panic(err)
	}
	return n
}

func (portal *Portal) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()
		portal.mtx.Lock()
		portal.requests = append(portal.requests, Request{
			Method:  request.Method,
			Path:    request.URL.Path,
			Header:  request.Header.Clone(),
			Cookies: request.Cookies(),
			Form:    request.PostForm,
		})
		portal.mtx.Unlock()
		next.ServeHTTP(writer, request)
	})
}

func (portal *Portal) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		portal.mtx.Lock()
		resp, ok := portal.overrides[request.Method+" "+request.URL.Path]
		portal.mtx.Unlock()
		if !ok {
			next.ServeHTTP(writer, request)
			return
		}
		for key, values := range resp.Header {
			for _, value := range values {
				writer.Header().Add(key, value)
			}
		}
		writer.WriteHeader(resp.Status)
		writer.Write([]byte(resp.Body))
	})
}

// session returns the session of the request; unknown or missing session cookies yield nil
func (portal *Portal) session(request *http.Request) *Session {
	cookie, err := request.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	ses, err := portal.sessions.get(cookie.Value)
	if err != nil {
		panic(err)
	}
	return ses
}

func (portal *Portal) handleRoot(writer http.ResponseWriter, request *http.Request) {
	ses := portal.session(request)
	if ses == nil {
		created, err := portal.sessions.create()
		if err != nil {
			http.Error(writer, err.Error(), http.StatusInternalServerError)
			return
		}
		ses = created
		http.SetCookie(writer, &http.Cookie{Name: SessionCookie, Value: ses.Token, Path: "/", HttpOnly: true})
	}

	if !ses.Authenticated() {
		writeHTML(writer, http.StatusOK, loginPage(""))
		return
	}
	writeHTML(writer, http.StatusOK, portal.landingPage(ses.Username))
}

func (portal *Portal) handleLogin(writer http.ResponseWriter, request *http.Request) {
	ses := portal.session(request)
	if ses == nil {
		writeHTML(writer, http.StatusForbidden, "<p>Your session has expired.</p>")
		return
	}
	if request.PostForm.Get("userLogin") != portal.Username || request.PostForm.Get("userPassword") != portal.Password {
		writeHTML(writer, http.StatusOK, loginPage("Invalid username or password."))
		return
	}
	authenticated, err := portal.sessions.authenticate(ses.Token, portal.Username)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(writer, &http.Cookie{Name: SessionCookie, Value: authenticated.Token, Path: "/", HttpOnly: true})
	writeHTML(writer, http.StatusOK, portal.landingPage(portal.Username))
}

func (portal *Portal) handleApproveForm(writer http.ResponseWriter, request *http.Request) {
	ses := portal.session(request)
	if ses == nil || !ses.Authenticated() {
		writeHTML(writer, http.StatusForbidden, "<p>Please log in first.</p>")
		return
	}
	writeHTML(writer, http.StatusOK, fmt.Sprintf(`<html><body>
<h2>Approve a Device</h2>
<form method="post" action="/account/approve">
<input type="hidden" name="ip" value="%s">
<input type="hidden" name="username" value="%s">
<input type="hidden" name="building" value="hostel">
<label><input type="radio" name="duration" id="radios-0" value="1"> 1 hour</label>
<label><input type="radio" name="duration" id="radios-1" value="2" checked> 1 day</label>
<button type="submit" id="approveBtn" name="approveBtn" value="Authorize">Authorize</button>
</form>
</body></html>`, html.EscapeString(remoteIP(request)), html.EscapeString(ses.Username)))
}

func (portal *Portal) handleApprove(writer http.ResponseWriter, request *http.Request) {
	ses := portal.session(request)
	if ses == nil || !ses.Authenticated() {
		writeHTML(writer, http.StatusForbidden, "<p>Please log in first.</p>")
		return
	}
	portal.mtx.Lock()
	portal.approvals = append(portal.approvals, Approval{
		Username: ses.Username,
		IP:       remoteIP(request),
		Duration: request.PostForm.Get("duration"),
		Form:     request.PostForm,
	})
	portal.mtx.Unlock()
	writeHTML(writer, http.StatusOK, "<p>Machine authorized successfully.</p>")
}

func (portal *Portal) landingPage(username string) string {
	var rows strings.Builder
	for _, approval := range portal.Approvals() {
		if approval.Username != username {
			continue
		}
		expiry := "1 day"
		if approval.Duration == "1" {
			expiry = "1 hour"
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>00:00:00:00:00:00</td><td>%s</td></tr>\n", html.EscapeString(approval.IP), expiry)
	}
	return fmt.Sprintf(`<html><body>
<p>Welcome %s | <a href="/account/logout">Logout</a></p>
<h3>Authorized machines</h3>
<table>
<tr><th>IP Address</th><th>MAC Address</th><th>Expiry</th></tr>
%s</table>
</body></html>`, html.EscapeString(username), rows.String())
}

func loginPage(message string) string {
	return fmt.Sprintf(`<html><body>
<p>%s</p>
<form method="post" action="/account/login">
<input type="text" name="userLogin">
<input type="password" name="userPassword">
<input type="submit" name="submit" value="Log in">
</form>
</body></html>`, html.EscapeString(message))
}

func remoteIP(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

func writeHTML(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	writer.Write([]byte(body))
}
