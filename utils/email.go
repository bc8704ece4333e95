package utils

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	bracketedAddress = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)
	routingPrefix    = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

// ExtractAddress returns the bare, lowercased address from a header value such
// as `Jane Doe <jane@example.com>`. Values without brackets are returned trimmed.
func ExtractAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(addr.Address)
	}
	if m := bracketedAddress.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(m[1])
	}
	return strings.ToLower(strings.Trim(raw, `"' `))
}

// SplitRecipients returns every address in a To header, in order, without duplicates
func SplitRecipients(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}

	if list, err := mail.ParseAddressList(raw); err == nil {
		for _, a := range list {
			add(strings.ToLower(a.Address))
		}
		return out
	}
	for _, part := range strings.Split(raw, ",") {
		add(ExtractAddress(part))
	}
	return out
}

// NormalizeRoutingPrefix lowercases and trims a routing prefix and reports whether it is usable
func NormalizeRoutingPrefix(prefix string) (string, bool) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	return prefix, routingPrefix.MatchString(prefix)
}

// RoutingEmail builds the inbound address for a routing prefix
func RoutingEmail(prefix, domain string) string {
	return prefix + "@" + strings.ToLower(domain)
}

// HTMLToText extracts the readable text from an HTML email body. It is only a
// fallback for relays that deliver no plain text part.
func HTMLToText(body string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))
	hidden := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.TextToken:
			if hidden == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				if tt == html.StartTagToken {
					hidden++
				}
			case atom.Br:
				b.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style, atom.Head, atom.Title:
				if hidden > 0 {
					hidden--
				}
			case atom.P:
				b.WriteString("\n\n")
			case atom.Div, atom.Li, atom.Tr:
				b.WriteString("\n")
			}
		}
	}

	text := strings.ReplaceAll(b.String(), "\r\n", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
