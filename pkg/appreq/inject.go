package appreq

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/etree"

	gobxd "github.com/sirosfoundation/go-bxd"
	"github.com/sirosfoundation/go-bxd/pkg/compression"
)

const (
	// TimestampLayout is second precision with an explicit numeric offset.
	TimestampLayout = "2006-01-02T15:04:05-07:00"

	// DateLayout is the xs:date form of StartDate and EndDate.
	DateLayout = "2006-01-02"
)

// injector populates a template copy for one command.
type injector struct {
	params     *Params
	policy     policy
	now        time.Time
	compressor *compression.Compressor
	logger     *slog.Logger

	root *etree.Element
}

func (in *injector) apply(doc *etree.Document) error {
	in.root = doc.Root()
	p := in.params

	for _, f := range []struct {
		tag, value string
	}{
		{"CustomerId", p.CustomerID},
		{"Command", p.Command.String()},
		{"Timestamp", in.now.Format(TimestampLayout)},
		{"Environment", p.Environment},
		{"SoftwareId", gobxd.SoftwareID()},
	} {
		if err := in.set(f.tag, f.value); err != nil {
			return err
		}
	}

	for _, f := range []struct {
		tag, name, value string
		presence         presence
	}{
		{"Status", "status", p.Status, in.policy.status},
		{"TargetId", "target id", p.TargetID, in.policy.targetID},
		{"FileType", "file type", p.FileType, in.policy.fileType},
	} {
		if err := in.field(f.tag, f.name, f.value, f.presence); err != nil {
			return err
		}
	}

	if err := in.fileReference(); err != nil {
		return err
	}
	if err := in.dates(); err != nil {
		return err
	}
	return in.content()
}

// field writes an element the policy allows and removes it otherwise.
func (in *injector) field(tag, name, value string, pr presence) error {
	switch {
	case pr == absent:
		in.remove(tag)
		return nil
	case value == "" && pr == required:
		return fmt.Errorf("%w: %s is required for %s", ErrParameter, name, in.params.Command)
	case value == "":
		in.remove(tag)
		return nil
	default:
		return in.set(tag, value)
	}
}

func (in *injector) fileReference() error {
	ref := in.params.FileReference
	switch {
	case in.policy.fileReference == absent:
		in.remove("FileReferences")
		return nil
	case ref == "":
		return fmt.Errorf("%w: file reference is required for %s", ErrParameter, in.params.Command)
	}

	refs := in.root.SelectElement("FileReferences")
	if refs == nil {
		return fmt.Errorf("%w: template has no FileReferences element", ErrConfiguration)
	}
	el := refs.SelectElement("FileReference")
	if el == nil {
		return fmt.Errorf("%w: template has no FileReference element", ErrConfiguration)
	}
	el.SetText(ref)
	return nil
}

// dates writes StartDate and EndDate only as a pair.
func (in *injector) dates() error {
	start, end := in.params.StartDate, in.params.EndDate
	if in.policy.dates == absent || start.IsZero() || end.IsZero() {
		if in.policy.dates != absent && start.IsZero() != end.IsZero() {
			in.logger.Warn("ignoring incomplete date range, both StartDate and EndDate are needed",
				"command", in.params.Command.String(),
				"start_date", formatDate(start),
				"end_date", formatDate(end))
		}
		in.remove("StartDate")
		in.remove("EndDate")
		return nil
	}

	if err := in.set("StartDate", start.Format(DateLayout)); err != nil {
		return err
	}
	return in.set("EndDate", end.Format(DateLayout))
}

func (in *injector) content() error {
	if in.policy.content == absent {
		in.remove("Content")
		in.remove("Compression")
		in.remove("CompressionMethod")
		return nil
	}

	payload := in.params.Content
	if len(payload) == 0 {
		return fmt.Errorf("%w: content is required for %s", ErrParameter, in.params.Command)
	}

	if in.params.Compress && in.policy.compression != absent {
		if !compression.IsGzip(payload) {
			compressed, err := in.compressor.Compress(payload)
			if err != nil {
				return fmt.Errorf("%w: compressing content: %v", ErrParameter, err)
			}
			in.logger.Debug("content compressed",
				"original_size", len(payload),
				"compressed_size", len(compressed))
			payload = compressed
		}
		if err := in.set("Compression", "true"); err != nil {
			return err
		}
		if err := in.set("CompressionMethod", in.compressor.Method()); err != nil {
			return err
		}
	} else {
		in.remove("Compression")
		in.remove("CompressionMethod")
	}

	return in.set("Content", base64.StdEncoding.EncodeToString(payload))
}

func (in *injector) set(tag, value string) error {
	if err := checkText(value); err != nil {
		return fmt.Errorf("%w: %s %v", ErrParameter, tag, err)
	}
	el := in.root.SelectElement(tag)
	if el == nil {
		return fmt.Errorf("%w: template for %s has no %s element", ErrConfiguration, in.params.Command, tag)
	}
	el.SetText(value)
	return nil
}

func (in *injector) remove(tag string) {
	if el := in.root.SelectElement(tag); el != nil {
		in.root.RemoveChild(el)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
