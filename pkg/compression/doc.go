// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression provides GZIP payload compression for UploadFile
requests.

An ApplicationRequest may carry compressed Content. The payload is then a
GZIP file format member (RFC 1952), the Compression element is true and
CompressionMethod names the format:

	compressor := compression.NewCompressor()
	compressed, err := compressor.Compress(payload)
	// <Compression>true</Compression>
	// <CompressionMethod>RFC1952</CompressionMethod>

Payloads that already start with the GZIP header can be detected with
IsGzip and passed through unchanged.
*/
package compression
