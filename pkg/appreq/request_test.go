package appreq

import (
	"compress/gzip"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-bxd/pkg/compression"
	"github.com/sirosfoundation/go-bxd/pkg/schema"
	"github.com/sirosfoundation/go-bxd/pkg/xmldsig"
)

// decodeRequest parses the base64 output the way the bank would
func decodeRequest(t *testing.T, payload string) *etree.Document {
	t.Helper()

	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	return doc
}

func dsigElement(t *testing.T, doc *etree.Document, path string) *etree.Element {
	t.Helper()

	el := doc.FindElement("/ApplicationRequest/Signature/" + path)
	require.NotNil(t, el, path)
	return el
}

func TestNewRequest_MissingParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"private key", func(p *Params) { p.PrivateKey = nil }},
		{"certificate", func(p *Params) { p.Certificate = nil }},
		{"command", func(p *Params) { p.Command = "" }},
		{"customer id", func(p *Params) { p.CustomerID = "" }},
		{"environment", func(p *Params) { p.Environment = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams(t, DownloadFile)
			tt.mutate(&params)

			req, err := NewRequest(params)
			assert.ErrorIs(t, err, ErrParameter)
			assert.Contains(t, err.Error(), tt.name)
			assert.Nil(t, req)
		})
	}
}

func TestRequest_InvalidCommand(t *testing.T) {
	params := testParams(t, DownloadFile)
	params.Command = "wrong_kind_of_command"

	req, err := NewRequest(params)
	require.NoError(t, err, "construction accepts any command")

	_, err = req.Base64()
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = req.XML()
	assert.ErrorIs(t, err, ErrInvalidCommand, "the failure is remembered")
}

func TestRequest_Signature(t *testing.T) {
	key, cert := testKeyMaterial(t)

	for _, cmd := range Commands() {
		t.Run(cmd.String(), func(t *testing.T) {
			payload, err := Build(testParams(t, cmd))
			require.NoError(t, err)
			doc := decodeRequest(t, payload)

			t.Run("digest", func(t *testing.T) {
				stripped := doc.Copy()
				root := stripped.Root()
				root.RemoveChild(xmldsig.FindSignature(root))

				canonical, err := xmldsig.Canonicalize(root)
				require.NoError(t, err)
				sum := sha1.Sum(canonical)

				assert.Equal(t,
					base64.StdEncoding.EncodeToString(sum[:]),
					dsigElement(t, doc, "SignedInfo/Reference/DigestValue").Text())
			})

			t.Run("signature value", func(t *testing.T) {
				canonical, err := xmldsig.Canonicalize(dsigElement(t, doc, "SignedInfo"))
				require.NoError(t, err)
				sum := sha1.Sum(canonical)

				signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, sum[:])
				require.NoError(t, err)

				assert.Equal(t,
					base64.StdEncoding.EncodeToString(signature),
					dsigElement(t, doc, "SignatureValue").Text())
			})

			t.Run("certificate", func(t *testing.T) {
				pemCert := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
				body := strings.Split(pemCert, "-----BEGIN CERTIFICATE-----")[1]
				body = strings.Split(body, "-----END CERTIFICATE-----")[0]
				body = strings.Join(strings.Fields(body), "")

				assert.Equal(t, body, dsigElement(t, doc, "KeyInfo/X509Data/X509Certificate").Text())
			})

			t.Run("verifies", func(t *testing.T) {
				data, err := base64.StdEncoding.DecodeString(payload)
				require.NoError(t, err)
				assert.NoError(t, xmldsig.Verify(data, cert))
				assert.NoError(t, xmldsig.CrossCheck(data, cert))
			})

			t.Run("schema valid", func(t *testing.T) {
				set, err := schema.Default()
				require.NoError(t, err)
				assert.NoError(t, set.Validate(doc))
			})
		})
	}
}

func TestRequest_SHA256(t *testing.T) {
	_, cert := testKeyMaterial(t)

	req, err := NewRequest(testParams(t, DownloadFileList), WithDigestAlgorithm(crypto.SHA256))
	require.NoError(t, err)
	data, err := req.XML()
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	assert.Equal(t, xmldsig.AlgorithmSHA256,
		dsigElement(t, doc, "SignedInfo/Reference/DigestMethod").SelectAttrValue("Algorithm", ""))
	assert.Equal(t, xmldsig.AlgorithmRSASHA256,
		dsigElement(t, doc, "SignedInfo/SignatureMethod").SelectAttrValue("Algorithm", ""))
	assert.NoError(t, xmldsig.Verify(data, cert))
}

func TestRequest_SigningErrors(t *testing.T) {
	key, _ := testKeyMaterial(t)

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  crypto.Signer
	}{
		{"non-RSA key", ecKey},
		{"key of another certificate", otherKey},
		{"unsupported digest", key},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams(t, GetUserInfo)
			params.PrivateKey = tt.key

			var opts []Option
			if tt.name == "unsupported digest" {
				opts = append(opts, WithDigestAlgorithm(crypto.SHA512))
			}

			_, err := Build(params, opts...)
			assert.ErrorIs(t, err, ErrSigning)
		})
	}
}

func TestRequest_OutputIsStable(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC))

	req, err := NewRequest(testParams(t, DownloadFile), WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, DownloadFile, req.Command())
	assert.NotEmpty(t, req.ID())

	first, err := req.Base64()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := req.Base64()
	require.NoError(t, err)
	assert.Equal(t, first, second, "later calls must not re-sign")

	// Document hands out copies
	doc, err := req.Document()
	require.NoError(t, err)
	doc.FindElement("/ApplicationRequest/CustomerId").SetText("99999999")

	third, err := req.Base64()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestRequest_ParamsAreCopied(t *testing.T) {
	params := testParams(t, UploadFile)

	req, err := NewRequest(params)
	require.NoError(t, err)
	copy(params.Content, "XXXXXXX")

	doc, err := req.Document()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("haisuli")), element(doc, "Content").Text())
}

func TestRequest_Concurrent(t *testing.T) {
	req, err := NewRequest(testParams(t, DownloadFileList))
	require.NoError(t, err)

	const workers = 8
	results := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = req.Base64()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestRequest_DistinctRequests(t *testing.T) {
	a, err := NewRequest(testParams(t, GetUserInfo))
	require.NoError(t, err)
	b, err := NewRequest(testParams(t, GetUserInfo))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRequest_CustomStore(t *testing.T) {
	store, err := LoadStore(embeddedTemplates(t), nil)
	require.NoError(t, err)

	payload, err := Build(testParams(t, GetUserInfo), WithStore(store))
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
}

func TestNewRequest_RejectsUnserializableText(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"carriage return in file reference", func(p *Params) { p.FileReference = "11111111A120060303295018000001\r4" }},
		{"carriage return in customer id", func(p *Params) { p.CustomerID = "1111\r1111" }},
		{"CRLF in target id", func(p *Params) { p.TargetID = "11111111A1\r\n" }},
		{"control character", func(p *Params) { p.FileType = "TI\x01TO" }},
		{"invalid UTF-8", func(p *Params) { p.Status = "NEW\xff" }},
		{"noncharacter", func(p *Params) { p.Environment = "PRODUCTION\uFFFE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams(t, DownloadFile)
			tt.mutate(&params)

			req, err := NewRequest(params)
			assert.ErrorIs(t, err, ErrParameter)
			assert.Nil(t, req)
		})
	}
}

func TestRequest_TextSurvivesSerialization(t *testing.T) {
	_, cert := testKeyMaterial(t)

	params := testParams(t, DownloadFile)
	params.TargetID = "Åbo\t11111111A1"
	params.FileReference = "11111111A1\n2006030329501800000014"

	req, err := NewRequest(params)
	require.NoError(t, err)
	data, err := req.XML()
	require.NoError(t, err)

	require.NoError(t, xmldsig.Verify(data, cert))
	require.NoError(t, xmldsig.CrossCheck(data, cert))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	assert.Equal(t, params.TargetID, element(doc, "TargetId").Text())
	assert.Equal(t, params.FileReference, element(doc, "FileReferences/FileReference").Text())
}

func TestRequest_WithCompressor(t *testing.T) {
	params := testParams(t, UploadFile)
	params.Content = []byte(strings.Repeat("<Pmt>kissa</Pmt>", 64))
	params.Compress = true

	payload, err := Build(params, WithCompressor(compression.NewCompressorWithLevel(gzip.BestCompression)))
	require.NoError(t, err)
	doc := decodeRequest(t, payload)

	assert.Equal(t, "true", element(doc, "Compression").Text())
	assert.Equal(t, compression.MethodRFC1952, element(doc, "CompressionMethod").Text())

	compressed, err := base64.StdEncoding.DecodeString(element(doc, "Content").Text())
	require.NoError(t, err)
	content, err := compression.NewCompressor().Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, params.Content, content)

	_, err = Build(params, WithCompressor(compression.NewCompressorWithLevel(42)))
	assert.ErrorIs(t, err, ErrParameter)
}
