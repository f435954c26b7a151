package keystore

import (
	"fmt"

	"github.com/sirosfoundation/go-bxd/internal/config"
)

// Open loads the signer described by the configuration. Signers that hold
// a token session implement io.Closer.
func Open(cfg config.KeysConfig) (Signer, error) {
	switch cfg.Mode {
	case "pem":
		return LoadPEM(cfg.PEM.KeyFile, cfg.PEM.CertFile)
	case "pkcs12":
		return LoadPKCS12(cfg.PKCS12.File, cfg.PKCS12.Password)
	case "pkcs11":
		return LoadPKCS11(cfg.PKCS11)
	default:
		return nil, fmt.Errorf("unknown key mode: %s", cfg.Mode)
	}
}
