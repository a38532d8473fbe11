// Package cookies owns the cookie jar shared by every request and answers
// questions about the session it holds.
package cookies

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	MEMBER_ID        = "ipb_member_id"
	PASS_HASH        = "ipb_pass_hash"
	IGNEOUS          = "igneous"
	SELECTED_PROFILE = "sp"
	// yay is handed out to sessions ExHentai refuses, it must not outlive a
	// login.
	YAY = "yay"
)

// igneous value given to accounts without ExHentai access
const igneousMystery = "mystery"

// Store is an http.CookieJar whose contents can be inspected and reset.
type Store struct {
	lock sync.RWMutex
	jar  *cookiejar.Jar

	ehentai  *url.URL
	exhentai *url.URL
}

func newJar() *cookiejar.Jar {
	// only fails for a nil error path in cookiejar.New
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

func NewStore(ehentaiURL, exhentaiURL string) (*Store, error) {
	ehentai, err := url.Parse(ehentaiURL)
	if err != nil {
		return nil, err
	}
	exhentai, err := url.Parse(exhentaiURL)
	if err != nil {
		return nil, err
	}
	return &Store{
		jar:      newJar(),
		ehentai:  ehentai,
		exhentai: exhentai,
	}, nil
}

func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	s.jar.SetCookies(u, cookies)
}

func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.jar.Cookies(u)
}

func (s *Store) EHentai() *url.URL  { return s.ehentai }
func (s *Store) ExHentai() *url.URL { return s.exhentai }

// GetCookie returns the value of key for host, "" when unset.
func (s *Store) GetCookie(host *url.URL, key string) string {
	for _, cookie := range s.Cookies(host) {
		if cookie.Name == key {
			return cookie.Value
		}
	}
	return ""
}

func (s *Store) SetOrEditCookie(host *url.URL, key, value string) {
	s.SetCookies(host, []*http.Cookie{{
		Name:    key,
		Value:   value,
		Path:    "/",
		Expires: time.Now().AddDate(1, 0, 0),
	}})
}

func (s *Store) removeCookie(host *url.URL, key string) {
	s.SetCookies(host, []*http.Cookie{{
		Name:   key,
		Path:   "/",
		MaxAge: -1,
	}})
}

// SetCredentials stores a member id and pass hash for both hosts.
func (s *Store) SetCredentials(memberID, passHash string) {
	for _, host := range []*url.URL{s.ehentai, s.exhentai} {
		s.SetOrEditCookie(host, MEMBER_ID, memberID)
		s.SetOrEditCookie(host, PASS_HASH, passHash)
	}
}

// SyncHosts copies the credentials of whichever host has them to the other.
func (s *Store) SyncHosts() {
	for _, pair := range [][2]*url.URL{{s.ehentai, s.exhentai}, {s.exhentai, s.ehentai}} {
		from, to := pair[0], pair[1]
		for _, key := range []string{MEMBER_ID, PASS_HASH} {
			value := s.GetCookie(from, key)
			if value != "" && s.GetCookie(to, key) == "" {
				s.SetOrEditCookie(to, key, value)
			}
		}
	}
}

// MemberID is the logged in member, "" when logged out.
func (s *Store) MemberID() string {
	return s.GetCookie(s.ehentai, MEMBER_ID)
}

func (s *Store) DidLogin() bool {
	return s.GetCookie(s.ehentai, MEMBER_ID) != "" && s.GetCookie(s.ehentai, PASS_HASH) != ""
}

// ShouldFetchIgneous is true when logged in without a usable igneous cookie.
func (s *Store) ShouldFetchIgneous() bool {
	if !s.DidLogin() {
		return false
	}
	igneous := s.GetCookie(s.exhentai, IGNEOUS)
	return igneous == "" || igneous == igneousMystery
}

// RemoveTransient drops the cookies that must not survive a login.
func (s *Store) RemoveTransient() {
	s.removeCookie(s.exhentai, YAY)
	if s.GetCookie(s.exhentai, IGNEOUS) == igneousMystery {
		s.removeCookie(s.exhentai, IGNEOUS)
	}
}

func (s *Store) ClearAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.jar = newJar()
	slog.Debug("cleared all cookies")
}
