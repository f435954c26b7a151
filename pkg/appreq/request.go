package appreq

import (
	"bytes"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sirosfoundation/go-bxd/pkg/compression"
	"github.com/sirosfoundation/go-bxd/pkg/xmldsig"
)

// Option configures a Request
type Option func(*Request)

// WithStore uses s instead of the embedded templates.
func WithStore(s *Store) Option {
	return func(r *Request) {
		r.store = s
	}
}

// WithClock sets the clock the Timestamp element is taken from.
func WithClock(c clockwork.Clock) Option {
	return func(r *Request) {
		r.clock = c
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Request) {
		r.logger = l
	}
}

// WithDigestAlgorithm selects the digest and signature hash. The default is
// SHA-1; crypto.SHA256 is the only alternative.
func WithDigestAlgorithm(h crypto.Hash) Option {
	return func(r *Request) {
		r.hash = h
	}
}

// WithCompressor sets the compressor used for UploadFile content.
func WithCompressor(c *compression.Compressor) Option {
	return func(r *Request) {
		r.compressor = c
	}
}

// Request builds one signed ApplicationRequest. The document is assembled
// and signed on the first call to Base64, XML or Document; later calls
// return the same signed document.
type Request struct {
	id         string
	params     Params
	store      *Store
	clock      clockwork.Clock
	logger     *slog.Logger
	hash       crypto.Hash
	compressor *compression.Compressor

	once   sync.Once
	signed *etree.Document
	err    error
}

// NewRequest checks that the required parameters are present. The command
// itself is checked when the document is built.
func NewRequest(params Params, opts ...Option) (*Request, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	r := &Request{
		id:     uuid.New().String(),
		params: params,
		clock:  clockwork.NewRealClock(),
		hash:   crypto.SHA1,
	}
	r.params.Content = bytes.Clone(params.Content)

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("request_id", r.id)
	if r.compressor == nil {
		r.compressor = compression.NewCompressor()
	}

	return r, nil
}

// Build is a one-shot NewRequest followed by Base64.
func Build(params Params, opts ...Option) (string, error) {
	r, err := NewRequest(params, opts...)
	if err != nil {
		return "", err
	}
	return r.Base64()
}

// ID returns the identifier attached to the request's log records.
func (r *Request) ID() string {
	return r.id
}

// Command returns the requested command.
func (r *Request) Command() Command {
	return r.params.Command
}

// Base64 returns the signed document, serialized as UTF-8 XML and base64
// encoded.
func (r *Request) Base64() (string, error) {
	data, err := r.XML()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// XML returns the serialized signed document.
func (r *Request) XML() ([]byte, error) {
	doc, err := r.build()
	if err != nil {
		return nil, err
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize application request: %w", err)
	}
	return data, nil
}

// Document returns a copy of the signed document.
func (r *Request) Document() (*etree.Document, error) {
	doc, err := r.build()
	if err != nil {
		return nil, err
	}
	return doc.Copy(), nil
}

func (r *Request) build() (*etree.Document, error) {
	r.once.Do(func() {
		r.signed, r.err = r.assemble()
		if r.err != nil {
			r.logger.Error("failed to build application request",
				"command", r.params.Command.String(),
				"error", r.err)
		}
	})
	return r.signed, r.err
}

func (r *Request) assemble() (*etree.Document, error) {
	cmd := r.params.Command
	pol, err := policyFor(cmd)
	if err != nil {
		return nil, err
	}

	store := r.store
	if store == nil {
		if store, err = DefaultStore(); err != nil {
			return nil, err
		}
	}
	doc, err := store.Template(cmd)
	if err != nil {
		return nil, err
	}

	in := &injector{
		params:     &r.params,
		policy:     pol,
		now:        r.clock.Now(),
		compressor: r.compressor,
		logger:     r.logger,
	}
	if err := in.apply(doc); err != nil {
		return nil, err
	}

	signer, err := xmldsig.NewSigner(r.params.PrivateKey, r.params.Certificate, r.hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	if err := signer.Sign(doc); err != nil {
		if errors.Is(err, xmldsig.ErrNoSignatureTemplate) {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	r.logger.Info("application request signed",
		"command", cmd.String(),
		"customer_id", r.params.CustomerID,
		"environment", r.params.Environment,
		"digest", r.hash.String())

	return doc, nil
}
