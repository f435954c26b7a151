// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package appreq builds signed ApplicationRequest documents for the bank web
services file exchange (namespace http://bxd.fi/xmldata/).

A request is created from a Params value and produces one base64 encoded,
enveloped-signed XML document:

	req, err := appreq.NewRequest(appreq.Params{
	    PrivateKey:    key,
	    Certificate:   cert,
	    Command:       appreq.DownloadFile,
	    CustomerID:    "11111111",
	    Environment:   "PRODUCTION",
	    Status:        "NEW",
	    TargetID:      "11111111A1",
	    FileType:      "TITO",
	    FileReference: "11111111A12006030329501800000014",
	})
	if err != nil {
	    return err
	}
	payload, err := req.Base64()

# Commands and fields

Each command has its own template. CustomerId, Command, Timestamp,
Environment and SoftwareId are always written. The other elements depend on
the command:

	Field           DownloadFile  DownloadFileList  GetUserInfo  UploadFile
	Status          required      required          -            -
	TargetId        required      required          -            -
	FileType        required      required          -            required
	FileReference   required      -                 -            -
	Content         -             -                 -            required
	StartDate/EndDate  optional pair  optional pair -            -
	Compression     -             -                 -            optional

Elements that do not apply to a command are removed from the document, not
left empty. Values given for such elements are ignored.

# Errors

NewRequest fails with ErrParameter when a required parameter is missing.
Building fails with ErrInvalidCommand for an unknown command, ErrParameter
for a missing command specific field, ErrSigning for unusable key material
and ErrConfiguration for broken templates.
*/
package appreq
