// Package keystore loads the signing key and certificate of a bank customer.
//
// Keys come from one of three sources:
//
//   - PEM: a private key file (PKCS#1, PKCS#8 or SEC 1) and a certificate file
//   - PKCS#12: a single password protected bundle as issued by most banks
//   - PKCS#11: a key pair and certificate on a token, built with -tags pkcs11
//
// Each produces a Signer, which is a crypto.Signer that also carries its
// certificate and can therefore be handed to the request builder directly.
package keystore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"io"
	"time"
)

// Common errors
var (
	ErrKeyNotFound         = errors.New("signing key not found")
	ErrUnsupportedKey      = errors.New("unsupported signing key")
	ErrCertificateMismatch = errors.New("certificate does not match signing key")
	ErrPKCS11Unavailable   = errors.New("PKCS#11 support not compiled in (build with -tags pkcs11)")
)

// Signer performs cryptographic signing operations
type Signer interface {
	// Sign signs the digest using the underlying private key.
	Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error)

	// Public returns the public key corresponding to the private key.
	Public() crypto.PublicKey

	// Certificate returns the X.509 certificate for this signer.
	Certificate() *x509.Certificate
}

// KeyInfo describes a signing key
type KeyInfo struct {
	// Algorithm is the key algorithm (e.g., "RSA", "EC")
	Algorithm string

	// KeySize is the key size in bits (e.g., 2048 for RSA, 256 for P-256)
	KeySize int

	// NotBefore is when the associated certificate becomes valid
	NotBefore time.Time

	// NotAfter is when the associated certificate expires
	NotAfter time.Time

	// CertificateSubject is the subject DN of the certificate
	CertificateSubject string
}

// Describe returns the metadata of a signer's key and certificate.
func Describe(s Signer) KeyInfo {
	cert := s.Certificate()
	return KeyInfo{
		Algorithm:          keyAlgorithmName(s.Public()),
		KeySize:            keySize(s.Public()),
		NotBefore:          cert.NotBefore,
		NotAfter:           cert.NotAfter,
		CertificateSubject: cert.Subject.String(),
	}
}

// keySigner implements Signer for keys held in memory
type keySigner struct {
	key  crypto.Signer
	cert *x509.Certificate
}

func newKeySigner(key crypto.Signer, cert *x509.Certificate) (*keySigner, error) {
	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return nil, ErrUnsupportedKey
	}
	if !pub.Equal(cert.PublicKey) {
		return nil, ErrCertificateMismatch
	}
	return &keySigner{key: key, cert: cert}, nil
}

func (s *keySigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return s.key.Sign(rand, digest, opts)
}

func (s *keySigner) Public() crypto.PublicKey {
	return s.key.Public()
}

func (s *keySigner) Certificate() *x509.Certificate {
	return s.cert
}

func keyAlgorithmName(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *ecdsa.PublicKey:
		return "EC"
	case *rsa.PublicKey:
		return "RSA"
	default:
		return "Unknown"
	}
}

func keySize(pub crypto.PublicKey) int {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case *rsa.PublicKey:
		return k.N.BitLen()
	default:
		return 0
	}
}
