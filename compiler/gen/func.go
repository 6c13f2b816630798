package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/dirtydb/schema"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Add common initialisms from golint and more.
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC", "MB",
		"QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO", "TCP",
		"TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "VM",
		"XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// pascal converts a snake_case column name to a Go identifier.
//
//	user_id => UserID
//	full_name => FullName
func pascal(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	words := strings.Split(s, "_")
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
		} else {
			words[i] = title.String(w)
		}
	}
	return strings.Join(words, "")
}

// receiver returns the receiver name of type s.
func receiver(s string) string {
	r := strings.ToLower(s[:1])
	if r == "b" || r == "f" {
		// Taken by the builder and the field package.
		return "_" + r
	}
	return r
}

// tableName returns the default table of entity name: the plural snake
// case name.
func tableName(name string) string {
	return schema.Snake(rules.Pluralize(name))
}

// fileName returns the generated file name of entity name.
func fileName(name string) string {
	return schema.Snake(name) + ".go"
}
