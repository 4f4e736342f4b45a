package directory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fanout/internal/domain/notification"

	"go.yaml.in/yaml/v3"
)

// fileFormat is the on-disk layout of a directory file:
//
//	recipients:
//	  - id: user-1
//	    name: John Smith
//	    email: john.smith@email.com
//	    phone: "+1-555-0101"
//	    categories: [SPORTS, FINANCE]
//	    channels: [EMAIL, SMS]
type fileFormat struct {
	Recipients []fileRecipient `yaml:"recipients"`
}

type fileRecipient struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Email      string   `yaml:"email"`
	Phone      string   `yaml:"phone"`
	Categories []string `yaml:"categories"`
	Channels   []string `yaml:"channels"`
}

// LoadFile reads and validates a YAML directory file.
func LoadFile(path string) ([]notification.Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing directory file %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a YAML directory document. Unknown fields, unknown categories
// or channels, and duplicate IDs are rejected.
func Parse(data []byte) ([]notification.Recipient, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileFormat
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	seen := make(map[string]bool, len(doc.Recipients))
	out := make([]notification.Recipient, 0, len(doc.Recipients))
	var errs []error
	for i, fr := range doc.Recipients {
		id := strings.TrimSpace(fr.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("recipients[%d]: id is required", i))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("recipients[%d]: duplicate id %q", i, id))
			continue
		}
		seen[id] = true

		r := notification.Recipient{
			ID:    id,
			Name:  fr.Name,
			Email: fr.Email,
			Phone: fr.Phone,
		}
		for _, c := range fr.Categories {
			cat, err := notification.ParseCategory(c)
			if err != nil {
				errs = append(errs, fmt.Errorf("recipients[%d]: %w", i, err))
				continue
			}
			r.Categories = append(r.Categories, cat)
		}
		for _, c := range fr.Channels {
			ch, err := notification.ParseChannel(c)
			if err != nil {
				errs = append(errs, fmt.Errorf("recipients[%d]: %w", i, err))
				continue
			}
			r.Channels = append(r.Channels, ch)
		}
		out = append(out, r)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
