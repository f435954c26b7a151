package xmldsig

import (
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"
)

// CrossCheck validates the enveloped signature of data with signedxml, a
// canonicalization and XML-DSig implementation separate from the one Sign
// and Verify use. A document accepted by both was canonicalized the way an
// independent verifier does it. The certificate embedded in KeyInfo must be
// trusted.
func CrossCheck(data []byte, trusted *x509.Certificate) error {
	if trusted == nil {
		return fmt.Errorf("%w: no trusted certificate", ErrInvalidSignature)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: failed to parse document: %v", ErrInvalidSignature, err)
	}
	sig := FindSignature(doc.Root())
	if sig == nil {
		return fmt.Errorf("%w: no signature", ErrInvalidSignature)
	}
	embedded := sig.FindElement("./KeyInfo/X509Data/X509Certificate")
	if embedded == nil || strings.Join(strings.Fields(embedded.Text()), "") != CertificateBody(trusted) {
		return fmt.Errorf("%w: embedded certificate is not the trusted one", ErrInvalidSignature)
	}

	validator, err := signedxml.NewValidator(string(data))
	if err != nil {
		return fmt.Errorf("%w: failed to create validator: %v", ErrInvalidSignature, err)
	}
	validator.Certificates = append(validator.Certificates, *trusted)

	if _, err := validator.ValidateReferences(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return nil
}
