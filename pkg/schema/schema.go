package schema

import (
	"crypto/sha1"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// Errors
var (
	// ErrInvalid is wrapped by every *ValidationError.
	ErrInvalid = errors.New("document does not conform to schema")

	// ErrSchema reports an unreadable, modified or unsupported schema.
	ErrSchema = errors.New("schema error")
)

// Entry is the schema the embedded set is loaded from.
const Entry = "application_request.xsd"

//go:embed schemas/*.xsd
var schemaFS embed.FS

// SchemaFingerprints pins the embedded schema files: base64 SHA-1 of the
// raw bytes.
var SchemaFingerprints = map[string]string{
	"application_request.xsd": "NJnUC8CmRy1/4+mkKEtlof/cT0w=",
	"xmldsig-core-schema.xsd": "UTaDJUuu1ybyO2Xznns4wU7FARU=",
}

// Set is a compiled group of schema documents. It is read-only after
// loading and safe for concurrent use.
type Set struct {
	elements     map[qname]*elementDecl
	complexTypes map[qname]*complexType
	simpleTypes  map[qname]*simpleType
	fingerprints map[string]string
}

var (
	defaultSet     *Set
	defaultSetErr  error
	defaultSetOnce sync.Once
)

// Default returns the embedded ApplicationRequest schema set, checked
// against SchemaFingerprints.
func Default() (*Set, error) {
	defaultSetOnce.Do(func() {
		sub, err := fs.Sub(schemaFS, "schemas")
		if err != nil {
			defaultSetErr = fmt.Errorf("%w: %v", ErrSchema, err)
			return
		}
		defaultSet, defaultSetErr = Load(sub, Entry)
		if defaultSetErr != nil {
			return
		}
		if err := defaultSet.CheckFingerprints(SchemaFingerprints); err != nil {
			defaultSet, defaultSetErr = nil, err
		}
	})
	return defaultSet, defaultSetErr
}

// Load parses entry from fsys together with every schema it imports.
// schemaLocation values are resolved relative to the importing file.
func Load(fsys fs.FS, entry string) (*Set, error) {
	s := &Set{
		elements:     make(map[qname]*elementDecl),
		complexTypes: make(map[qname]*complexType),
		simpleTypes:  make(map[qname]*simpleType),
		fingerprints: make(map[string]string),
	}
	l := &loader{fsys: fsys, set: s}
	if err := l.load(entry); err != nil {
		return nil, err
	}
	if err := s.link(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fingerprints returns the fingerprint of every loaded file, keyed by path.
func (s *Set) Fingerprints() map[string]string {
	return maps.Clone(s.fingerprints)
}

// CheckFingerprints fails unless every loaded file matches pinned.
func (s *Set) CheckFingerprints(pinned map[string]string) error {
	for name, fingerprint := range s.fingerprints {
		if want, ok := pinned[name]; !ok || want != fingerprint {
			return fmt.Errorf("%w: %s fingerprint %s does not match %q", ErrSchema, name, fingerprint, want)
		}
	}
	return nil
}

type loader struct {
	fsys fs.FS
	set  *Set
}

// schemaDoc carries the namespace context of one schema file.
type schemaDoc struct {
	name     string
	tns      string
	prefixes map[string]string
}

func (d *schemaDoc) resolve(value string) (qname, error) {
	prefix, local, found := strings.Cut(value, ":")
	if !found {
		prefix, local = "", value
	}
	space, ok := d.prefixes[prefix]
	if !ok && prefix != "" {
		return qname{}, fmt.Errorf("%w: %s: undeclared prefix in %q", ErrSchema, d.name, value)
	}
	return qname{space: space, local: local}, nil
}

func isXSD(el *etree.Element, tag string) bool {
	return el.Tag == tag && el.NamespaceURI() == NSXMLSchema
}

func (l *loader) load(name string) error {
	if _, done := l.set.fingerprints[name]; done {
		return nil
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	sum := sha1.Sum(data)
	l.set.fingerprints[name] = base64.StdEncoding.EncodeToString(sum[:])

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchema, name, err)
	}
	root := doc.Root()
	if root == nil || !isXSD(root, "schema") {
		return fmt.Errorf("%w: %s is not an XML schema", ErrSchema, name)
	}

	d := &schemaDoc{
		name:     name,
		tns:      root.SelectAttrValue("targetNamespace", ""),
		prefixes: map[string]string{},
	}
	for _, attr := range root.Attr {
		switch {
		case attr.Space == "xmlns":
			d.prefixes[attr.Key] = attr.Value
		case attr.Space == "" && attr.Key == "xmlns":
			d.prefixes[""] = attr.Value
		}
	}
	if root.SelectAttrValue("elementFormDefault", "unqualified") != "qualified" {
		return fmt.Errorf("%w: %s: only elementFormDefault=\"qualified\" is supported", ErrSchema, name)
	}

	for _, child := range root.ChildElements() {
		if child.NamespaceURI() != NSXMLSchema {
			continue
		}
		switch child.Tag {
		case "import", "include":
			location := child.SelectAttrValue("schemaLocation", "")
			if location == "" {
				return fmt.Errorf("%w: %s: %s without schemaLocation", ErrSchema, name, child.Tag)
			}
			if err := l.load(path.Join(path.Dir(name), location)); err != nil {
				return err
			}
		case "element":
			decl, err := l.element(d, child, true)
			if err != nil {
				return err
			}
			l.set.elements[decl.name] = decl
		case "complexType":
			ct, err := l.complexType(d, child)
			if err != nil {
				return err
			}
			l.set.complexTypes[ct.name] = ct
		case "simpleType":
			st, err := l.simpleType(d, child)
			if err != nil {
				return err
			}
			l.set.simpleTypes[st.name] = st
		case "annotation":
		default:
			return fmt.Errorf("%w: %s: unsupported top-level %s", ErrSchema, name, child.Tag)
		}
	}
	return nil
}

func (l *loader) element(d *schemaDoc, el *etree.Element, global bool) (*elementDecl, error) {
	decl := &elementDecl{min: 1, max: 1}

	if ref := el.SelectAttrValue("ref", ""); ref != "" && !global {
		q, err := d.resolve(ref)
		if err != nil {
			return nil, err
		}
		decl.ref = q
	} else {
		name := el.SelectAttrValue("name", "")
		if name == "" {
			return nil, fmt.Errorf("%w: %s: element without name", ErrSchema, d.name)
		}
		decl.name = qname{space: d.tns, local: name}
	}

	if !global {
		var err error
		if decl.min, err = occurs(el, "minOccurs"); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSchema, d.name, err)
		}
		if decl.max, err = occurs(el, "maxOccurs"); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSchema, d.name, err)
		}
	}

	if typ := el.SelectAttrValue("type", ""); typ != "" {
		q, err := d.resolve(typ)
		if err != nil {
			return nil, err
		}
		decl.typeName = q
	}
	for _, child := range el.ChildElements() {
		var err error
		switch {
		case isXSD(child, "complexType"):
			decl.complex, err = l.complexType(d, child)
		case isXSD(child, "simpleType"):
			decl.simple, err = l.simpleType(d, child)
		}
		if err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func occurs(el *etree.Element, attr string) (int, error) {
	v := el.SelectAttrValue(attr, "1")
	if v == "unbounded" {
		return unbounded, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", attr, v)
	}
	return n, nil
}

func (l *loader) complexType(d *schemaDoc, el *etree.Element) (*complexType, error) {
	ct := &complexType{}
	if name := el.SelectAttrValue("name", ""); name != "" {
		ct.name = qname{space: d.tns, local: name}
	}

	for _, child := range el.ChildElements() {
		switch {
		case isXSD(child, "sequence"):
			for _, p := range child.ChildElements() {
				if !isXSD(p, "element") {
					return nil, fmt.Errorf("%w: %s: unsupported particle %s", ErrSchema, d.name, p.Tag)
				}
				decl, err := l.element(d, p, false)
				if err != nil {
					return nil, err
				}
				ct.sequence = append(ct.sequence, decl)
			}
		case isXSD(child, "attribute"):
			attr, err := attribute(d, child)
			if err != nil {
				return nil, err
			}
			ct.attributes = append(ct.attributes, attr)
		case isXSD(child, "simpleContent"):
			ext := child.ChildElements()
			if len(ext) != 1 || !isXSD(ext[0], "extension") {
				return nil, fmt.Errorf("%w: %s: simpleContent must hold one extension", ErrSchema, d.name)
			}
			base, err := d.resolve(ext[0].SelectAttrValue("base", ""))
			if err != nil {
				return nil, err
			}
			ct.textType = base
			for _, a := range ext[0].ChildElements() {
				if !isXSD(a, "attribute") {
					continue
				}
				attr, err := attribute(d, a)
				if err != nil {
					return nil, err
				}
				ct.attributes = append(ct.attributes, attr)
			}
		case isXSD(child, "annotation"):
		default:
			return nil, fmt.Errorf("%w: %s: unsupported content model %s", ErrSchema, d.name, child.Tag)
		}
	}
	return ct, nil
}

func attribute(d *schemaDoc, el *etree.Element) (attributeDecl, error) {
	attr := attributeDecl{
		name:     el.SelectAttrValue("name", ""),
		typeName: qname{space: NSXMLSchema, local: "string"},
		required: el.SelectAttrValue("use", "optional") == "required",
	}
	if attr.name == "" {
		return attr, fmt.Errorf("%w: %s: attribute without name", ErrSchema, d.name)
	}
	if typ := el.SelectAttrValue("type", ""); typ != "" {
		q, err := d.resolve(typ)
		if err != nil {
			return attr, err
		}
		attr.typeName = q
	}
	return attr, nil
}

func (l *loader) simpleType(d *schemaDoc, el *etree.Element) (*simpleType, error) {
	st := &simpleType{}
	if name := el.SelectAttrValue("name", ""); name != "" {
		st.name = qname{space: d.tns, local: name}
	}

	restriction := el.SelectElement("restriction")
	if restriction == nil || !isXSD(restriction, "restriction") {
		return nil, fmt.Errorf("%w: %s: simple type %s must be a restriction", ErrSchema, d.name, st.name.local)
	}
	base, err := d.resolve(restriction.SelectAttrValue("base", ""))
	if err != nil {
		return nil, err
	}
	st.base = base

	for _, facet := range restriction.ChildElements() {
		value := facet.SelectAttrValue("value", "")
		switch {
		case isXSD(facet, "enumeration"):
			st.enum = append(st.enum, value)
		case isXSD(facet, "minLength"), isXSD(facet, "maxLength"), isXSD(facet, "length"):
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: invalid %s %q", ErrSchema, d.name, facet.Tag, value)
			}
			if facet.Tag != "maxLength" {
				st.minLen, st.hasMin = n, true
			}
			if facet.Tag != "minLength" {
				st.maxLen, st.hasMax = n, true
			}
		default:
			return nil, fmt.Errorf("%w: %s: unsupported facet %s", ErrSchema, d.name, facet.Tag)
		}
	}
	return st, nil
}

// link checks that every referenced element and type is declared.
func (s *Set) link() error {
	var decls []*elementDecl
	for _, decl := range s.elements {
		decls = append(decls, decl)
	}
	for _, ct := range s.complexTypes {
		decls = append(decls, ct.sequence...)
	}

	for len(decls) > 0 {
		decl := decls[0]
		decls = decls[1:]

		if decl.ref != (qname{}) {
			if _, ok := s.elements[decl.ref]; !ok {
				return fmt.Errorf("%w: undeclared element %s", ErrSchema, decl.ref)
			}
			continue
		}
		if decl.typeName != (qname{}) && !s.hasType(decl.typeName) {
			return fmt.Errorf("%w: element %s has undeclared type %s", ErrSchema, decl.name, decl.typeName)
		}
		if decl.complex != nil {
			decls = append(decls, decl.complex.sequence...)
		}
	}
	return nil
}

func (s *Set) hasType(q qname) bool {
	if q.space == NSXMLSchema {
		_, ok := builtins[q.local]
		return ok
	}
	_, complexOK := s.complexTypes[q]
	_, simpleOK := s.simpleTypes[q]
	return complexOK || simpleOK
}
