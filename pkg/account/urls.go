package account

import (
	"fmt"
	"net/url"
	"strings"
)

// URLBuilder produces the absolute links embedded in confirmation and
// reset emails. It is a pure value; handlers and services receive it
// injected rather than reading global configuration.
type URLBuilder struct {
	baseURL string
}

// NewURLBuilder creates a URLBuilder rooted at baseURL.
func NewURLBuilder(baseURL string) *URLBuilder {
	return &URLBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// ConfirmEmailURL is the link target for email confirmation.
func (b *URLBuilder) ConfirmEmailURL(username, token string) string {
	return b.link("confirm-email", username, token)
}

// ResetPasswordURL is the link target for password reset.
func (b *URLBuilder) ResetPasswordURL(username, token string) string {
	return b.link("reset-password", username, token)
}

func (b *URLBuilder) link(route, username, token string) string {
	return fmt.Sprintf("%s/%s?username=%s&token=%s",
		b.baseURL, route, url.QueryEscape(username), url.QueryEscape(token))
}
