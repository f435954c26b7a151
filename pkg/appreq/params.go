package appreq

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Params carries the material and business data of one request. Zero
// values mean "not supplied".
type Params struct {
	// Required for every command
	PrivateKey  crypto.Signer
	Certificate *x509.Certificate
	Command     Command
	CustomerID  string
	Environment string

	// Command specific
	Status        string
	TargetID      string
	FileType      string
	FileReference string
	Content       []byte
	StartDate     time.Time
	EndDate       time.Time

	// Compress gzips Content of an UploadFile request.
	Compress bool
}

func (p *Params) validate() error {
	var missing []string
	if p.PrivateKey == nil {
		missing = append(missing, "private key")
	}
	if p.Certificate == nil {
		missing = append(missing, "certificate")
	}
	if p.Command == "" {
		missing = append(missing, "command")
	}
	if strings.TrimSpace(p.CustomerID) == "" {
		missing = append(missing, "customer id")
	}
	if strings.TrimSpace(p.Environment) == "" {
		missing = append(missing, "environment")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrParameter, strings.Join(missing, ", "))
	}

	for _, f := range []struct {
		name, value string
	}{
		{"command", string(p.Command)},
		{"customer id", p.CustomerID},
		{"environment", p.Environment},
		{"status", p.Status},
		{"target id", p.TargetID},
		{"file type", p.FileType},
		{"file reference", p.FileReference},
	} {
		if err := checkText(f.value); err != nil {
			return fmt.Errorf("%w: %s %v", ErrParameter, f.name, err)
		}
	}
	return nil
}

// checkText rejects text that does not survive serialization unchanged:
// invalid UTF-8, characters outside the XML 1.0 Char production and carriage
// returns, which every parser turns into line feeds.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("is not valid UTF-8")
	}
	for i, r := range s {
		switch {
		case r == '\r':
			return fmt.Errorf("contains a carriage return at offset %d", i)
		case !isXMLChar(r):
			return fmt.Errorf("contains character %U not allowed in XML at offset %d", r, i)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
