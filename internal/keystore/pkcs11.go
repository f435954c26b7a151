//go:build pkcs11

package keystore

import (
	"fmt"

	"github.com/ThalesGroup/crypto11"

	"github.com/sirosfoundation/go-bxd/internal/config"
)

// pkcs11Signer is a keySigner whose key stays on a PKCS#11 token
type pkcs11Signer struct {
	*keySigner
	ctx *crypto11.Context
}

// Close releases the token session.
func (s *pkcs11Signer) Close() error {
	return s.ctx.Close()
}

// LoadPKCS11 opens the token and finds the key pair and certificate labelled
// cfg.KeyLabel.
func LoadPKCS11(cfg config.PKCS11Config) (Signer, error) {
	ctx, err := crypto11.Configure(&crypto11.Config{
		Path:       cfg.ModulePath,
		TokenLabel: cfg.TokenLabel,
		Pin:        cfg.PIN,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring PKCS#11: %w", err)
	}

	signer, err := loadTokenSigner(ctx, []byte(cfg.KeyLabel))
	if err != nil {
		ctx.Close()
		return nil, err
	}
	return signer, nil
}

func loadTokenSigner(ctx *crypto11.Context, label []byte) (*pkcs11Signer, error) {
	key, err := ctx.FindKeyPair(nil, label)
	if err != nil {
		return nil, fmt.Errorf("finding key pair: %w", err)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: no key pair labelled %q", ErrKeyNotFound, label)
	}

	cert, err := ctx.FindCertificate(nil, label, nil)
	if err != nil {
		return nil, fmt.Errorf("finding certificate: %w", err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: no certificate labelled %q", ErrKeyNotFound, label)
	}

	ks, err := newKeySigner(key, cert)
	if err != nil {
		return nil, err
	}
	return &pkcs11Signer{keySigner: ks, ctx: ctx}, nil
}
