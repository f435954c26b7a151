// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gobxd builds signed ApplicationRequest documents for the Finnish bank
web services file transfer interface (the bxd.fi "Web Services" channel used
by Nordea, Danske Bank, OP, Samlink and others).

# Overview

An ApplicationRequest is the business payload carried inside the SOAP
request sent to the bank. It names a command, identifies the customer and
the execution environment, carries command specific data and is signed with
an enveloped XML signature made with the customer's signing certificate.
The finished document is delivered base64 encoded.

go-bxd produces exactly that artifact. SOAP envelopes, WSDL clients and the
interpretation of the bank's ApplicationResponse are left to the caller.

# Package Structure

	github.com/sirosfoundation/go-bxd/pkg/appreq      - ApplicationRequest templates, field policy and builder
	github.com/sirosfoundation/go-bxd/pkg/xmldsig     - Exclusive C14N, enveloped RSA signatures, verification
	github.com/sirosfoundation/go-bxd/pkg/schema      - XSD subset validator with the pinned schemas
	github.com/sirosfoundation/go-bxd/pkg/compression - GZIP (RFC 1952) content compression
	github.com/sirosfoundation/go-bxd/cmd/bxd-request - Command line front end

# Quick Start

	req, err := appreq.NewRequest(appreq.Params{
	    PrivateKey:  key,
	    Certificate: cert,
	    Command:     appreq.DownloadFileList,
	    CustomerID:  "11111111",
	    Environment: "PRODUCTION",
	    Status:      "NEW",
	    TargetID:    "11111111A1",
	    FileType:    "TITO",
	})
	if err != nil {
	    return err
	}
	payload, err := req.Base64()

# Signatures

  - Enveloped signature over the whole document (Reference URI="")
  - Exclusive XML Canonicalization 1.0 for both the document and SignedInfo
  - RSA-SHA1 with SHA-1 digests by default, RSA-SHA256 on request
  - Signer certificate embedded in KeyInfo/X509Data

# References

  - XML Signature Syntax and Processing: https://www.w3.org/TR/xmldsig-core/
  - Exclusive XML Canonicalization: https://www.w3.org/TR/xml-exc-c14n/
  - Web Services - Bank file transfer: https://www.finanssiala.fi/

# License

BSD-2-Clause License
*/
package gobxd
