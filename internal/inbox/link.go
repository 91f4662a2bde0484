package inbox

import (
	"net/url"
	"strings"
)

// DefaultReplyBaseURL is the WhatsApp click-to-chat endpoint
const DefaultReplyBaseURL = "https://wa.me/"

// Digits strips everything but ASCII digits from phone
func Digits(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ReplyLink builds a click-to-chat link for key with text prefilled
func ReplyLink(baseURL, key, text string) string {
	if baseURL == "" {
		baseURL = DefaultReplyBaseURL
	}
	link := strings.TrimRight(baseURL, "/") + "/" + Digits(key)
	if text == "" {
		return link
	}
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
