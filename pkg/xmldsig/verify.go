package xmldsig

import (
	"crypto/x509"
	"fmt"

	"github.com/beevik/etree"
	"github.com/jonboulle/clockwork"
	dsig "github.com/russellhaering/goxmldsig"
)

// VerifyOption configures signature verification.
type VerifyOption func(*dsig.ValidationContext)

// WithVerifyClock evaluates certificate validity against clock instead of
// the system time.
func WithVerifyClock(clock clockwork.Clock) VerifyOption {
	return func(ctx *dsig.ValidationContext) {
		ctx.Clock = dsig.NewFakeClock(clock)
	}
}

// Verify checks the enveloped signature of a serialized document against a
// trusted certificate. The certificate embedded in KeyInfo must be the
// trusted one.
func Verify(data []byte, trusted *x509.Certificate, opts ...VerifyOption) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: failed to parse document: %v", ErrInvalidSignature, err)
	}
	return VerifyDocument(doc, trusted, opts...)
}

// VerifyDocument is Verify for a parsed document. doc is not modified.
func VerifyDocument(doc *etree.Document, trusted *x509.Certificate, opts ...VerifyOption) error {
	if trusted == nil {
		return fmt.Errorf("%w: no trusted certificate", ErrInvalidSignature)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: document has no root element", ErrInvalidSignature)
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{trusted},
	})
	for _, opt := range opts {
		opt(ctx)
	}

	if _, err := ctx.Validate(root); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return nil
}
