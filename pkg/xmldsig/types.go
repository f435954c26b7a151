package xmldsig

import (
	"crypto"
	_ "crypto/sha1" // register SHA-1 for crypto.Hash.New
	_ "crypto/sha256"
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// NSXMLDSig is the XML Signature namespace.
const NSXMLDSig = "http://www.w3.org/2000/09/xmldsig#"

// Algorithm URIs for XML signature
const (
	// Canonicalization and transforms
	AlgorithmExcC14N            = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgorithmEnvelopedSignature = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"

	// Digest algorithms
	AlgorithmSHA1   = "http://www.w3.org/2000/09/xmldsig#sha1"
	AlgorithmSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"

	// Signature algorithms
	AlgorithmRSASHA1   = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
)

// Element names of the signature template
const (
	tagSignature       = "Signature"
	tagSignedInfo      = "SignedInfo"
	tagSignatureMethod = "SignatureMethod"
	tagReference       = "Reference"
	tagDigestMethod    = "DigestMethod"
	tagDigestValue     = "DigestValue"
	tagSignatureValue  = "SignatureValue"
	tagKeyInfo         = "KeyInfo"
	tagX509Data        = "X509Data"
	tagX509Certificate = "X509Certificate"
)

// Errors returned by the signer and verifier
var (
	ErrUnsupportedKey      = errors.New("unsupported signing key")
	ErrKeyMismatch         = errors.New("signing key does not match certificate")
	ErrUnsupportedDigest   = errors.New("unsupported digest algorithm")
	ErrNoSignatureTemplate = errors.New("signature template not found")
	ErrInvalidSignature    = errors.New("invalid signature")
)

// DigestAlgorithmURI returns the DigestMethod URI for hash.
func DigestAlgorithmURI(hash crypto.Hash) (string, error) {
	switch hash {
	case crypto.SHA1:
		return AlgorithmSHA1, nil
	case crypto.SHA256:
		return AlgorithmSHA256, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDigest, hash)
	}
}

// SignatureAlgorithmURI returns the RSA SignatureMethod URI for hash.
func SignatureAlgorithmURI(hash crypto.Hash) (string, error) {
	switch hash {
	case crypto.SHA1:
		return AlgorithmRSASHA1, nil
	case crypto.SHA256:
		return AlgorithmRSASHA256, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDigest, hash)
	}
}

// FindSignature returns the XML-DSig Signature element that is a direct
// child of root, or nil.
func FindSignature(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	return childNS(root, tagSignature)
}

func isSignature(el *etree.Element) bool {
	return el.Tag == tagSignature && el.NamespaceURI() == NSXMLDSig
}

// childNS returns the first child element of parent with the given local
// name in the XML-DSig namespace.
func childNS(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == NSXMLDSig {
			return child
		}
	}
	return nil
}
