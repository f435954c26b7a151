package appreq

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testCert    *x509.Certificate
	testKeyErr  error
)

// testKeyMaterial returns an RSA key and a self-signed certificate shared by
// the tests of this package.
func testKeyMaterial(t *testing.T) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
		if testKeyErr != nil {
			return
		}
		template := &x509.Certificate{
			SerialNumber: big.NewInt(1),
			Subject: pkix.Name{
				Organization: []string{"Test Organization"},
				CommonName:   "11111111",
			},
			NotBefore:             time.Now().Add(-time.Hour),
			NotAfter:              time.Now().Add(365 * 24 * time.Hour),
			KeyUsage:              x509.KeyUsageDigitalSignature,
			BasicConstraintsValid: true,
		}
		var der []byte
		der, testKeyErr = x509.CreateCertificate(rand.Reader, template, template, &testKey.PublicKey, testKey)
		if testKeyErr != nil {
			return
		}
		testCert, testKeyErr = x509.ParseCertificate(der)
	})
	require.NoError(t, testKeyErr)

	return testKey, testCert
}

// testParams returns parameters with every field filled, as a caller that
// reuses one parameter set for all commands would pass them.
func testParams(t *testing.T, cmd Command) Params {
	t.Helper()

	key, cert := testKeyMaterial(t)
	return Params{
		PrivateKey:    key,
		Certificate:   cert,
		Command:       cmd,
		CustomerID:    "11111111",
		Environment:   "PRODUCTION",
		Status:        "NEW",
		TargetID:      "11111111A1",
		FileType:      "TITO",
		FileReference: "11111111A12006030329501800000014",
		Content:       []byte("haisuli"),
	}
}

func buildDocument(t *testing.T, params Params, opts ...Option) *etree.Document {
	t.Helper()

	req, err := NewRequest(params, opts...)
	require.NoError(t, err)
	doc, err := req.Document()
	require.NoError(t, err)
	return doc
}

func element(doc *etree.Document, tag string) *etree.Element {
	return doc.FindElement("/ApplicationRequest/" + tag)
}
