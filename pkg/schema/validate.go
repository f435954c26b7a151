package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// Violation is one schema violation.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// ValidateBytes parses data and validates it.
func (s *Set) ValidateBytes(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return &ValidationError{Violations: []Violation{{Path: "/", Message: err.Error()}}}
	}
	return s.Validate(doc)
}

// Validate checks doc against the global element declaration of its root.
func (s *Set) Validate(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return &ValidationError{Violations: []Violation{{Path: "/", Message: "no root element"}}}
	}

	v := &validator{set: s}
	path := "/" + root.Tag
	if decl, ok := s.elements[qname{space: root.NamespaceURI(), local: root.Tag}]; ok {
		v.element(root, decl, path)
	} else {
		v.fail(path, "no declaration for {%s}%s", root.NamespaceURI(), root.Tag)
	}

	if len(v.violations) > 0 {
		return &ValidationError{Violations: v.violations}
	}
	return nil
}

type validator struct {
	set        *Set
	violations []Violation
}

func (v *validator) fail(path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

// resolve follows a ref particle to its global declaration.
func (v *validator) resolve(decl *elementDecl) *elementDecl {
	if decl.ref != (qname{}) {
		return v.set.elements[decl.ref]
	}
	return decl
}

func (v *validator) element(el *etree.Element, decl *elementDecl, path string) {
	switch {
	case decl.complex != nil:
		v.complex(el, decl.complex, path)
	case decl.simple != nil:
		v.text(el, path)
		v.simpleValue(el.Text(), decl.simple, path)
	case decl.typeName == (qname{}):
		// anyType
	default:
		v.typed(el, decl.typeName, path)
	}
}

func (v *validator) typed(el *etree.Element, typ qname, path string) {
	if ct, ok := v.set.complexTypes[typ]; ok {
		v.complex(el, ct, path)
		return
	}
	v.text(el, path)
	v.value(el.Text(), typ, path)
}

// text reports child elements inside an element with simple content.
func (v *validator) text(el *etree.Element, path string) {
	if children := el.ChildElements(); len(children) > 0 {
		v.fail(path, "unexpected element %s in simple content", children[0].Tag)
	}
}

func (v *validator) complex(el *etree.Element, ct *complexType, path string) {
	v.attributes(el, ct, path)

	if ct.textType != (qname{}) {
		v.text(el, path)
		v.value(el.Text(), ct.textType, path)
		return
	}

	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok && !cd.IsWhitespace() {
			v.fail(path, "unexpected text in element-only content")
			break
		}
	}

	children := el.ChildElements()
	i := 0
	for _, particle := range ct.sequence {
		decl := v.resolve(particle)
		count := 0
		for i < len(children) && (particle.max == unbounded || count < particle.max) {
			child := children[i]
			if child.Tag != decl.name.local || child.NamespaceURI() != decl.name.space {
				break
			}
			v.element(child, decl, fmt.Sprintf("%s/%s", path, child.Tag))
			count++
			i++
		}
		if count < particle.min {
			v.fail(path, "missing element %s", decl.name.local)
		}
	}
	for ; i < len(children); i++ {
		v.fail(path, "unexpected element %s", children[i].Tag)
	}
}

func (v *validator) attributes(el *etree.Element, ct *complexType, path string) {
	declared := make(map[string]bool, len(ct.attributes))
	for _, attr := range ct.attributes {
		declared[attr.name] = true
		a := el.SelectAttr(attr.name)
		if a == nil {
			if attr.required {
				v.fail(path, "missing attribute %s", attr.name)
			}
			continue
		}
		v.value(a.Value, attr.typeName, path+"/@"+attr.name)
	}

	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || a.Space == "xml" {
			continue
		}
		if a.Space != "" || !declared[a.Key] {
			v.fail(path, "undeclared attribute %s", a.FullKey())
		}
	}
}

// value checks a lexical value against a built-in or named simple type.
func (v *validator) value(s string, typ qname, path string) {
	if typ.space == NSXMLSchema {
		check, ok := builtins[typ.local]
		if !ok {
			v.fail(path, "unknown built-in type %s", typ.local)
			return
		}
		if collapsed(typ.local) {
			s = strings.TrimSpace(s)
		}
		if err := check(s); err != nil {
			v.fail(path, "%v", err)
		}
		return
	}

	st, ok := v.set.simpleTypes[typ]
	if !ok {
		v.fail(path, "unknown simple type %s", typ)
		return
	}
	v.simpleValue(s, st, path)
}

func (v *validator) simpleValue(s string, st *simpleType, path string) {
	before := len(v.violations)
	v.value(s, st.base, path)
	if len(v.violations) > before {
		return
	}

	if len(st.enum) > 0 {
		found := false
		for _, e := range st.enum {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			v.fail(path, "value %q not in %s", s, strings.Join(st.enum, ", "))
		}
	}

	n := utf8.RuneCountInString(s)
	if st.hasMin && n < st.minLen {
		v.fail(path, "value %q shorter than %d", s, st.minLen)
	}
	if st.hasMax && n > st.maxLen {
		v.fail(path, "value %q longer than %d", s, st.maxLen)
	}
}
