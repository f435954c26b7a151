package keystore

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"software.sslmate.com/src/go-pkcs12"
)

// pkcs12Signer is a keySigner that also keeps the CA chain of the bundle
type pkcs12Signer struct {
	*keySigner
	chain []*x509.Certificate
}

// Chain returns the CA certificates included in the bundle.
func (s *pkcs12Signer) Chain() []*x509.Certificate {
	return s.chain
}

// LoadPKCS12 loads a key and certificate from a PKCS#12 bundle.
func LoadPKCS12(path, password string) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("reading PKCS#12 file: %w", err)
	}

	key, cert, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("decoding PKCS#12 file: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}

	ks, err := newKeySigner(signer, cert)
	if err != nil {
		return nil, err
	}
	return &pkcs12Signer{keySigner: ks, chain: chain}, nil
}
