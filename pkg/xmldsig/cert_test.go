package xmldsig

import (
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateBody(t *testing.T) {
	_, cert := generateRSATestKey(t)

	body := CertificateBody(cert)
	der, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)
	assert.Equal(t, cert.Raw, der)

	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	assert.Equal(t, body, StripPEM(pemData))
}

func TestStripPEM(t *testing.T) {
	input := "-----BEGIN CERTIFICATE-----\r\nAAAA\r\n  BBBB \nCC==\n-----END CERTIFICATE-----\n"
	assert.Equal(t, "AAAABBBBCC==", StripPEM([]byte(input)))
	assert.Empty(t, StripPEM(nil))
}
