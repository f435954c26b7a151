package schema

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// NSXMLSchema is the XML Schema namespace.
const NSXMLSchema = "http://www.w3.org/2001/XMLSchema"

const unbounded = -1

type qname struct {
	space string
	local string
}

func (q qname) String() string {
	if q.space == "" {
		return q.local
	}
	return "{" + q.space + "}" + q.local
}

// elementDecl is a global element or a particle of a sequence.
type elementDecl struct {
	name     qname
	ref      qname
	typeName qname
	complex  *complexType
	simple   *simpleType
	min, max int
}

type complexType struct {
	name       qname
	sequence   []*elementDecl
	attributes []attributeDecl
	// simpleContent base type; zero when the type has element content
	textType qname
}

type attributeDecl struct {
	name     string
	typeName qname
	required bool
}

type simpleType struct {
	name   qname
	base   qname
	enum   []string
	minLen int
	maxLen int
	hasMin bool
	hasMax bool
}

type builtin func(string) error

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
	ncNamePattern  = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}._-]*$`)
)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02Z07:00",
}

var builtins = map[string]builtin{
	"anyType":      func(string) error { return nil },
	"string":       func(string) error { return nil },
	"token":        func(string) error { return nil },
	"anyURI":       checkAnyURI,
	"ID":           checkPattern(ncNamePattern, "ID"),
	"NCName":       checkPattern(ncNamePattern, "NCName"),
	"integer":      checkPattern(integerPattern, "integer"),
	"decimal":      checkPattern(decimalPattern, "decimal"),
	"boolean":      checkBoolean,
	"date":         checkTime(dateLayouts, "date"),
	"dateTime":     checkTime(dateTimeLayouts, "dateTime"),
	"base64Binary": checkBase64,
}

// collapsed reports whether a built-in type collapses whitespace before
// checking its lexical form.
func collapsed(local string) bool {
	return local != "string" && local != "anyType"
}

func checkAnyURI(v string) error {
	if strings.ContainsAny(v, " \t\r\n") {
		return fmt.Errorf("invalid anyURI value %q", v)
	}
	return nil
}

func checkBase64(v string) error {
	if _, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(v), "")); err != nil {
		return fmt.Errorf("invalid base64Binary value")
	}
	return nil
}

func checkBoolean(v string) error {
	switch v {
	case "true", "false", "1", "0":
		return nil
	}
	return fmt.Errorf("invalid boolean value %q", v)
}

func checkPattern(re *regexp.Regexp, typ string) builtin {
	return func(v string) error {
		if !re.MatchString(v) {
			return fmt.Errorf("invalid %s value %q", typ, v)
		}
		return nil
	}
}

func checkTime(layouts []string, typ string) builtin {
	return func(v string) error {
		for _, layout := range layouts {
			if _, err := time.Parse(layout, v); err == nil {
				return nil
			}
		}
		return fmt.Errorf("invalid %s value %q", typ, v)
	}
}
