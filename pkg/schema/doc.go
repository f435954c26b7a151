// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package schema validates ApplicationRequest documents against the XML schemas
published for the bank web services.

The package ships the application request schema and the part of the W3C XML
Signature schema it imports, both embedded and pinned by SchemaFingerprints:

	set, err := schema.Default()
	if err != nil {
	    return err
	}
	if err := set.ValidateBytes(xmlData); err != nil {
	    var verr *schema.ValidationError
	    if errors.As(err, &verr) {
	        for _, v := range verr.Violations {
	            log.Println(v.Path, v.Message)
	        }
	    }
	}

# Supported schema constructs

The validator implements the subset of XML Schema 1.0 these schemas use:
global element declarations, xs:import, named and anonymous complex types
with xs:sequence content (minOccurs, maxOccurs, ref), attributes with
use="required", simpleContent extensions, simple type restrictions with
enumeration, length, minLength and maxLength facets, and the built-in types
string, token, anyURI, ID, NCName, integer, decimal, boolean, date, dateTime
and base64Binary. Anything else is rejected with ErrSchema when loading.
*/
package schema
