package appreq

import (
	"crypto"
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"sync"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-bxd/pkg/xmldsig"
)

// NSApplicationRequest is the namespace of the ApplicationRequest document.
const NSApplicationRequest = "http://bxd.fi/xmldata/"

//go:embed templates/*.xml
var templateFS embed.FS

// TemplateFingerprints pins the embedded templates: base64 SHA-1 of the raw
// file bytes. The injector relies on exactly these skeletons.
var TemplateFingerprints = map[Command]string{
	DownloadFile:     "LC828qF0XmdZodo2rgCFPB/2SNk=",
	DownloadFileList: "3kIDTTXlODOTyiisVZyTey4Fq2o=",
	GetUserInfo:      "JlvXEv+gQUDb6oK4zFRLHYNU0aU=",
	UploadFile:       "MC5bR/KsLknNjRuNNrlhii2mnbs=",
}

// Store holds one parsed skeleton per command. It is read-only after
// loading and safe for concurrent use.
type Store struct {
	templates    map[Command]*etree.Document
	fingerprints map[Command]string
}

var (
	defaultStore     *Store
	defaultStoreErr  error
	defaultStoreOnce sync.Once
)

// DefaultStore returns the store of the embedded templates, checked against
// TemplateFingerprints.
func DefaultStore() (*Store, error) {
	defaultStoreOnce.Do(func() {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			defaultStoreErr = fmt.Errorf("%w: %v", ErrConfiguration, err)
			return
		}
		defaultStore, defaultStoreErr = LoadStore(sub, TemplateFingerprints)
	})
	return defaultStore, defaultStoreErr
}

// LoadStore reads the four command templates from the root of fsys. When
// pinned is non-nil every template must match its fingerprint.
func LoadStore(fsys fs.FS, pinned map[Command]string) (*Store, error) {
	s := &Store{
		templates:    make(map[Command]*etree.Document, len(templateNames)),
		fingerprints: make(map[Command]string, len(templateNames)),
	}

	for _, cmd := range Commands() {
		name := templateNames[cmd]
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, name, err)
		}

		fingerprint, _ := xmldsig.Digest(crypto.SHA1, data)
		if pinned != nil && pinned[cmd] != fingerprint {
			return nil, fmt.Errorf("%w: %s fingerprint %s does not match %s",
				ErrConfiguration, name, fingerprint, pinned[cmd])
		}

		doc, err := parseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
		}

		s.templates[cmd] = doc
		s.fingerprints[cmd] = fingerprint
	}

	return s, nil
}

func parseTemplate(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	// Indentation would otherwise end up in the canonical form
	doc.Unindent()

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	if root.Tag != "ApplicationRequest" || root.NamespaceURI() != NSApplicationRequest {
		return nil, fmt.Errorf("unexpected root element {%s}%s", root.NamespaceURI(), root.Tag)
	}
	if xmldsig.FindSignature(root) == nil {
		return nil, fmt.Errorf("no signature placeholder")
	}
	return doc, nil
}

// Template returns a private copy of the skeleton for cmd.
func (s *Store) Template(cmd Command) (*etree.Document, error) {
	doc, ok := s.templates[cmd]
	if !ok {
		if !cmd.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, string(cmd))
		}
		return nil, fmt.Errorf("%w: no template for %s", ErrConfiguration, cmd)
	}
	return doc.Copy(), nil
}

// Fingerprints returns the fingerprints computed while loading.
func (s *Store) Fingerprints() map[Command]string {
	return maps.Clone(s.fingerprints)
}
