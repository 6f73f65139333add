// Package naming converts declared type names into resource names.
package naming

import (
	"regexp"
	"strings"
)

var (
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
	invalidChars    = regexp.MustCompile(`[^a-z0-9.\-]+`)
	hyphenRuns      = regexp.MustCompile(`-{2,}`)
)

// Underscore turns a CamelCase identifier into its lowercase underscored form.
//
//	Underscore("MyPipeline") // "my_pipeline"
//	Underscore("HTTPServer") // "http_server"
//	Underscore("hello-world") // "hello_world"
func Underscore(s string) string {
	s = acronymBoundary.ReplaceAllString(s, "${1}_${2}")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToLower(s)
}

// Dasherize replaces underscores with hyphens.
func Dasherize(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

// Derive returns the resource name for a declared type name.
//
// The result is Dasherize(Underscore(typeName)). Characters that cannot appear in
// a resource name (anything other than lowercase letters, digits, '.' and '-') are
// replaced by '-'; hyphen runs introduced that way collapse and the name is trimmed
// of leading and trailing hyphens. An empty type name yields an empty name.
func Derive(typeName string) string {
	name := Dasherize(Underscore(typeName))
	if !invalidChars.MatchString(name) {
		return name
	}
	name = invalidChars.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
