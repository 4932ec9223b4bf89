package entity

import (
	"net/http"
	"sort"
)

// CookieSet is a session cookie set keyed by cookie name
type CookieSet map[string]string

// HTTPCookies returns the set as request cookies in name order
func (c CookieSet) HTTPCookies() []*http.Cookie {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: c[name]})
	}
	return cookies
}
