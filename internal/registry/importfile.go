package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// ImportEntry is one identity in a bulk import file.
type ImportEntry struct {
	Name       string               `yaml:"name" json:"name"`
	Email      string               `yaml:"email" json:"email"`
	Descriptor facematch.Descriptor `yaml:"descriptor" json:"descriptor"`
}

// ImportFile is the document shape accepted by the import command:
//
//	identities:
//	  - name: Jane Smith
//	    email: jane@example.com
//	    descriptor: [0.01, -0.2, ...]
//
// JSON documents with the same keys parse as well.
type ImportFile struct {
	Identities []ImportEntry `yaml:"identities" json:"identities"`
}

// ParseImportFile decodes a YAML or JSON import document.
func ParseImportFile(data []byte) (*ImportFile, error) {
	var f ImportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	return &f, nil
}
