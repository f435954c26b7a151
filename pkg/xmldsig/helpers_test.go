package xmldsig

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

const testTemplate = `<Order xmlns="urn:example:order">` +
	`<Id>1001</Id>` +
	`<Amount currency="EUR">12.50</Amount>` +
	`<Note/>` +
	`<Signature xmlns="http://www.w3.org/2000/09/xmldsig#">` +
	`<SignedInfo>` +
	`<CanonicalizationMethod Algorithm="http://www.w3.org/2001/10/xml-exc-c14n#"/>` +
	`<SignatureMethod Algorithm="http://www.w3.org/2000/09/xmldsig#rsa-sha1"/>` +
	`<Reference URI="">` +
	`<Transforms>` +
	`<Transform Algorithm="http://www.w3.org/2000/09/xmldsig#enveloped-signature"/>` +
	`<Transform Algorithm="http://www.w3.org/2001/10/xml-exc-c14n#"/>` +
	`</Transforms>` +
	`<DigestMethod Algorithm="http://www.w3.org/2000/09/xmldsig#sha1"/>` +
	`<DigestValue></DigestValue>` +
	`</Reference>` +
	`</SignedInfo>` +
	`<SignatureValue></SignatureValue>` +
	`<KeyInfo><X509Data><X509Certificate></X509Certificate></X509Data></KeyInfo>` +
	`</Signature>` +
	`</Order>`

// generateRSATestCert generates a self-signed certificate for key
func generateRSATestCert(t *testing.T, key *rsa.PrivateKey) *x509.Certificate {
	t.Helper()

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

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	return cert
}

func generateRSATestKey(t *testing.T) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key, generateRSATestCert(t, key)
}

func parseTestDocument(t *testing.T, xml string) *etree.Document {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return doc
}

func signatureElement(t *testing.T, doc *etree.Document, path string) *etree.Element {
	t.Helper()

	el := doc.FindElement("/Order/Signature/" + path)
	require.NotNil(t, el, "missing %s", path)
	return el
}
