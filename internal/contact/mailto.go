package contact

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var recipientCheck = validator.New()

// MailtoURI builds mailto:<recipient>?subject=..&body=.. for d. The body carries the sender's
// name and email ahead of the message.
func MailtoURI(recipient string, d Draft) (string, error) {
	if err := recipientCheck.Var(recipient, "required,email"); err != nil {
		return "", fmt.Errorf("contact: invalid recipient %q", recipient)
	}
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", d.Name, d.Email, d.Message)
	return "mailto:" + recipient +
		"?subject=" + escapeComponent(d.Subject) +
		"&body=" + escapeComponent(body), nil
}

// escapeComponent percent-encodes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ). Spaces become
// %20, never '+', which mail clients would show literally.
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if unreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0F])
	}
	return b.String()
}

func unreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", ch) >= 0
}
