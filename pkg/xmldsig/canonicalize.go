package xmldsig

import (
	"crypto"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
)

// Canonicalize returns the exclusive canonical form of el, evaluated in the
// namespace context el has inside its document. el is not modified.
func Canonicalize(el *etree.Element) ([]byte, error) {
	detached, err := detach(el)
	if err != nil {
		return nil, err
	}
	return canonicalize(detached)
}

// WithoutSignature returns a detached copy of root with every direct child
// Signature element removed, as the enveloped-signature transform does.
func WithoutSignature(root *etree.Element) (*etree.Element, error) {
	detached, err := detach(root)
	if err != nil {
		return nil, err
	}
	for _, child := range detached.ChildElements() {
		if isSignature(child) {
			detached.RemoveChild(child)
		}
	}
	return detached, nil
}

// EnvelopedDigest canonicalizes root with its Signature removed and returns
// the base64 digest of the canonical bytes.
func EnvelopedDigest(root *etree.Element, hash crypto.Hash) (string, error) {
	stripped, err := WithoutSignature(root)
	if err != nil {
		return "", err
	}
	canonical, err := canonicalize(stripped)
	if err != nil {
		return "", err
	}
	return Digest(hash, canonical)
}

// Digest hashes data and returns the standard base64 encoding of the sum.
func Digest(hash crypto.Hash, data []byte) (string, error) {
	if _, err := DigestAlgorithmURI(hash); err != nil {
		return "", err
	}
	h := hash.New()
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func detach(el *etree.Element) (*etree.Element, error) {
	if el == nil {
		return nil, fmt.Errorf("nothing to canonicalize")
	}
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil, fmt.Errorf("failed to build namespace context: %w", err)
	}
	detached, err := etreeutils.NSDetatch(ctx, el)
	if err != nil {
		return nil, fmt.Errorf("failed to detach element: %w", err)
	}
	return detached, nil
}

// canonicalize transforms el in place; callers pass a detached copy.
func canonicalize(el *etree.Element) ([]byte, error) {
	out, err := dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("").Canonicalize(el)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize %s: %w", el.Tag, err)
	}
	return out, nil
}
