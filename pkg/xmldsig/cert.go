package xmldsig

import (
	"crypto/x509"
	"encoding/base64"
	"strings"
)

// CertificateBody returns the base64 DER body of cert, which is the PEM
// encoding without armor lines and whitespace.
func CertificateBody(cert *x509.Certificate) string {
	return base64.StdEncoding.EncodeToString(cert.Raw)
}

// StripPEM removes the BEGIN/END armor lines and all whitespace from a PEM
// encoded block.
func StripPEM(pemData []byte) string {
	var b strings.Builder
	for _, line := range strings.Split(string(pemData), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(strings.Join(strings.Fields(line), ""))
	}
	return b.String()
}
