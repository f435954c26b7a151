//go:build !pkcs11

package keystore

import "github.com/sirosfoundation/go-bxd/internal/config"

// LoadPKCS11 fails with ErrPKCS11Unavailable unless built with the pkcs11 tag.
func LoadPKCS11(_ config.PKCS11Config) (Signer, error) {
	return nil, ErrPKCS11Unavailable
}
