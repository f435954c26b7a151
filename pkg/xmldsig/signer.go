package xmldsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
)

// Signer fills an enveloped Signature template with an RSA PKCS#1 v1.5
// signature.
type Signer struct {
	key  crypto.Signer
	cert *x509.Certificate
	hash crypto.Hash
}

// NewSigner creates a signer for an RSA key and its certificate. A zero hash
// selects SHA-1.
func NewSigner(key crypto.Signer, cert *x509.Certificate, hash crypto.Hash) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: private key is required", ErrUnsupportedKey)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: certificate is required", ErrUnsupportedKey)
	}
	if hash == 0 {
		hash = crypto.SHA1
	}
	if _, err := DigestAlgorithmURI(hash); err != nil {
		return nil, err
	}

	pub, ok := key.Public().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an RSA key", ErrUnsupportedKey, key.Public())
	}
	if priv, ok := key.(*rsa.PrivateKey); ok {
		if err := priv.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
		}
	}
	if !pub.Equal(cert.PublicKey) {
		return nil, ErrKeyMismatch
	}

	return &Signer{key: key, cert: cert, hash: hash}, nil
}

// Hash returns the digest algorithm used for both the reference digest and
// the signature.
func (s *Signer) Hash() crypto.Hash {
	return s.hash
}

// Certificate returns the certificate embedded into signed documents.
func (s *Signer) Certificate() *x509.Certificate {
	return s.cert
}

// Sign computes the enveloped signature of doc and writes it into the
// Signature template found under the root element.
func (s *Signer) Sign(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: document has no root element", ErrNoSignatureTemplate)
	}

	tmpl, err := locateTemplate(FindSignature(root))
	if err != nil {
		return err
	}

	digestURI, _ := DigestAlgorithmURI(s.hash)
	signatureURI, _ := SignatureAlgorithmURI(s.hash)
	tmpl.digestMethod.CreateAttr("Algorithm", digestURI)
	tmpl.signatureMethod.CreateAttr("Algorithm", signatureURI)

	digest, err := EnvelopedDigest(root, s.hash)
	if err != nil {
		return fmt.Errorf("failed to digest document: %w", err)
	}
	tmpl.digestValue.SetText(digest)
	tmpl.certificate.SetText(CertificateBody(s.cert))

	canonical, err := Canonicalize(tmpl.signedInfo)
	if err != nil {
		return fmt.Errorf("failed to canonicalize SignedInfo: %w", err)
	}
	value, err := s.sign(canonical)
	if err != nil {
		return err
	}
	tmpl.signatureValue.SetText(value)

	return nil
}

func (s *Signer) sign(data []byte) (string, error) {
	h := s.hash.New()
	h.Write(data)
	signature, err := s.key.Sign(rand.Reader, h.Sum(nil), s.hash)
	if err != nil {
		return "", fmt.Errorf("failed to sign SignedInfo: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

type signatureTemplate struct {
	signedInfo      *etree.Element
	signatureMethod *etree.Element
	digestMethod    *etree.Element
	digestValue     *etree.Element
	signatureValue  *etree.Element
	certificate     *etree.Element
}

func locateTemplate(sig *etree.Element) (*signatureTemplate, error) {
	if sig == nil {
		return nil, ErrNoSignatureTemplate
	}

	missing := func(path string) error {
		return fmt.Errorf("%w: missing %s", ErrNoSignatureTemplate, path)
	}

	t := &signatureTemplate{}
	if t.signedInfo = childNS(sig, tagSignedInfo); t.signedInfo == nil {
		return nil, missing("SignedInfo")
	}
	if t.signatureMethod = childNS(t.signedInfo, tagSignatureMethod); t.signatureMethod == nil {
		return nil, missing("SignedInfo/SignatureMethod")
	}
	ref := childNS(t.signedInfo, tagReference)
	if ref == nil {
		return nil, missing("SignedInfo/Reference")
	}
	if uri := ref.SelectAttrValue("URI", ""); uri != "" {
		return nil, fmt.Errorf("%w: reference URI %q is not the whole document", ErrNoSignatureTemplate, uri)
	}
	if t.digestMethod = childNS(ref, tagDigestMethod); t.digestMethod == nil {
		return nil, missing("Reference/DigestMethod")
	}
	if t.digestValue = childNS(ref, tagDigestValue); t.digestValue == nil {
		return nil, missing("Reference/DigestValue")
	}
	if t.signatureValue = childNS(sig, tagSignatureValue); t.signatureValue == nil {
		return nil, missing("SignatureValue")
	}
	keyInfo := childNS(sig, tagKeyInfo)
	if keyInfo == nil {
		return nil, missing("KeyInfo")
	}
	x509Data := childNS(keyInfo, tagX509Data)
	if x509Data == nil {
		return nil, missing("KeyInfo/X509Data")
	}
	if t.certificate = childNS(x509Data, tagX509Certificate); t.certificate == nil {
		return nil, missing("X509Data/X509Certificate")
	}
	return t, nil
}
