// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package xmldsig implements the enveloped XML signatures carried by
ApplicationRequest documents.

# Canonicalization

Both the signed document and the SignedInfo block are canonicalized with
Exclusive XML Canonicalization 1.0 (without comments). The implementation is
pinned to the canonicalizer of github.com/russellhaering/goxmldsig so that the
bytes digested here are the bytes a verifier built on the same library
recomputes:

	canonical, err := xmldsig.Canonicalize(signedInfo)

An element is canonicalized in its namespace context: declarations inherited
from ancestors are carried onto a detached copy before the transform, which
is what a verifier does when it extracts SignedInfo from a received document.

# Signing

A document is signed in place. It must already contain a Signature template
(SignedInfo with a single Reference, SignatureValue and KeyInfo/X509Data) as a
direct child of its root element:

	signer, err := xmldsig.NewSigner(privateKey, cert, crypto.SHA1)
	err = signer.Sign(doc)

Signing fills DigestValue, SignatureValue and X509Certificate and rewrites the
DigestMethod and SignatureMethod algorithm URIs for the configured hash.

# Verification

	err := xmldsig.Verify(signedXML, trustedCert)

# References

  - XML Signature Syntax and Processing: https://www.w3.org/TR/xmldsig-core/
  - Exclusive XML Canonicalization 1.0: https://www.w3.org/TR/xml-exc-c14n/
*/
package xmldsig
