package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gitlab_helper/internal/model"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no document is stored under a key
var ErrNotFound = errors.New("document not found")

// DocumentStore defines the interface for exchange document storage operations
type DocumentStore interface {
	Load(ctx context.Context, key string) (*model.IssueExchangeModel, error)
	Save(ctx context.Context, key string, data *model.IssueExchangeModel) error
}

// Format is the serialization of a stored document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf derives the format from the extension of key. Anything but .yaml and .yml is JSON.
func FormatOf(key string) Format {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode serializes data in the format
func (f Format) Encode(data *model.IssueExchangeModel) ([]byte, error) {
	if f == FormatYAML {
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return nil, fmt.Errorf("failed to encode yaml document: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml document: %w", err)
		}
		return buf.Bytes(), nil
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json document: %w", err)
	}
	return append(out, '\n'), nil
}

// Decode parses a document in the format
func (f Format) Decode(raw []byte) (*model.IssueExchangeModel, error) {
	var data model.IssueExchangeModel
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(raw, &data)
	} else {
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", f, err)
	}
	if data.Issues == nil {
		data.Issues = []model.ExchangeIssue{}
	}
	if data.Labels == nil {
		data.Labels = []model.ExchangeLabel{}
	}
	return &data, nil
}
