package xmldsig

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_Sign(t *testing.T) {
	key, cert := generateRSATestKey(t)

	signer, err := NewSigner(key, cert, crypto.SHA1)
	require.NoError(t, err)
	assert.Equal(t, crypto.SHA1, signer.Hash())
	assert.Same(t, cert, signer.Certificate())

	doc := parseTestDocument(t, testTemplate)
	require.NoError(t, signer.Sign(doc))

	// Work on the serialized form, as a receiver would
	data, err := doc.WriteToBytes()
	require.NoError(t, err)
	signed := etree.NewDocument()
	require.NoError(t, signed.ReadFromBytes(data))

	t.Run("digest covers document without signature", func(t *testing.T) {
		expected, err := EnvelopedDigest(signed.Root(), crypto.SHA1)
		require.NoError(t, err)
		assert.Equal(t, expected, signatureElement(t, signed, "SignedInfo/Reference/DigestValue").Text())
	})

	t.Run("signature value verifies over canonical SignedInfo", func(t *testing.T) {
		canonical, err := Canonicalize(signatureElement(t, signed, "SignedInfo"))
		require.NoError(t, err)

		value, err := base64.StdEncoding.DecodeString(signatureElement(t, signed, "SignatureValue").Text())
		require.NoError(t, err)

		sum, err := Digest(crypto.SHA1, canonical)
		require.NoError(t, err)
		hashed, err := base64.StdEncoding.DecodeString(sum)
		require.NoError(t, err)
		assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA1, hashed, value))
	})

	t.Run("certificate is the PEM body", func(t *testing.T) {
		pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
		assert.Equal(t, StripPEM(pemData), signatureElement(t, signed, "KeyInfo/X509Data/X509Certificate").Text())
	})

	t.Run("algorithms", func(t *testing.T) {
		assert.Equal(t, AlgorithmRSASHA1, signatureElement(t, signed, "SignedInfo/SignatureMethod").SelectAttrValue("Algorithm", ""))
		assert.Equal(t, AlgorithmSHA1, signatureElement(t, signed, "SignedInfo/Reference/DigestMethod").SelectAttrValue("Algorithm", ""))
	})
}

func TestSigner_Deterministic(t *testing.T) {
	key, cert := generateRSATestKey(t)
	signer, err := NewSigner(key, cert, 0)
	require.NoError(t, err)
	assert.Equal(t, crypto.SHA1, signer.Hash(), "zero hash defaults to SHA-1")

	first := parseTestDocument(t, testTemplate)
	second := parseTestDocument(t, testTemplate)
	require.NoError(t, signer.Sign(first))
	require.NoError(t, signer.Sign(second))

	a, err := first.WriteToString()
	require.NoError(t, err)
	b, err := second.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSigner_SHA256(t *testing.T) {
	key, cert := generateRSATestKey(t)
	signer, err := NewSigner(key, cert, crypto.SHA256)
	require.NoError(t, err)

	doc := parseTestDocument(t, testTemplate)
	require.NoError(t, signer.Sign(doc))

	assert.Equal(t, AlgorithmRSASHA256, signatureElement(t, doc, "SignedInfo/SignatureMethod").SelectAttrValue("Algorithm", ""))
	assert.Equal(t, AlgorithmSHA256, signatureElement(t, doc, "SignedInfo/Reference/DigestMethod").SelectAttrValue("Algorithm", ""))

	digest, err := base64.StdEncoding.DecodeString(signatureElement(t, doc, "SignedInfo/Reference/DigestValue").Text())
	require.NoError(t, err)
	assert.Len(t, digest, 32)
}

func TestNewSigner_Errors(t *testing.T) {
	key, cert := generateRSATestKey(t)
	_, otherCert := generateRSATestKey(t)

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	corrupted := *key
	corrupted.D = new(big.Int).Add(key.D, big.NewInt(1))

	tests := []struct {
		name    string
		key     crypto.Signer
		hash    crypto.Hash
		wantErr error
		cert    bool
	}{
		{name: "nil key", key: nil, hash: crypto.SHA1, wantErr: ErrUnsupportedKey},
		{name: "ecdsa key", key: ecKey, hash: crypto.SHA1, wantErr: ErrUnsupportedKey},
		{name: "corrupted key", key: &corrupted, hash: crypto.SHA1, wantErr: ErrUnsupportedKey},
		{name: "certificate of another key", key: key, hash: crypto.SHA1, wantErr: ErrKeyMismatch, cert: true},
		{name: "unsupported digest", key: key, hash: crypto.MD5, wantErr: ErrUnsupportedDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cert
			if tt.cert {
				c = otherCert
			}
			_, err := NewSigner(tt.key, c, tt.hash)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = NewSigner(key, nil, crypto.SHA1)
	assert.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestSigner_MissingTemplate(t *testing.T) {
	key, cert := generateRSATestKey(t)
	signer, err := NewSigner(key, cert, crypto.SHA1)
	require.NoError(t, err)

	remove := func(path string) func(*etree.Document) {
		return func(doc *etree.Document) {
			el := doc.FindElement(path)
			el.Parent().RemoveChild(el)
		}
	}

	tests := []struct {
		name   string
		mutate func(*etree.Document)
	}{
		{name: "no signature", mutate: remove("/Order/Signature")},
		{name: "no key info", mutate: remove("/Order/Signature/KeyInfo")},
		{name: "no reference", mutate: remove("/Order/Signature/SignedInfo/Reference")},
		{name: "no digest value", mutate: remove("/Order/Signature/SignedInfo/Reference/DigestValue")},
		{name: "detached reference", mutate: func(doc *etree.Document) {
			doc.FindElement("/Order/Signature/SignedInfo/Reference").CreateAttr("URI", "#body")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseTestDocument(t, testTemplate)
			tt.mutate(doc)
			assert.ErrorIs(t, signer.Sign(doc), ErrNoSignatureTemplate)
		})
	}

	assert.ErrorIs(t, signer.Sign(etree.NewDocument()), ErrNoSignatureTemplate)
}
