package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/facematch"
)

// readDescriptor loads a descriptor from path, or from stdin when path is "-".
func readDescriptor(path string) (facematch.Descriptor, error) {
	if path == "" {
		return nil, errors.New("--descriptor is required")
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
		if err != nil {
			return nil, fmt.Errorf("opening descriptor file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, constants.MaxRequestBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	return parseDescriptor(data)
}

// parseDescriptor accepts either a bare JSON array of numbers or an object
// with a "descriptor" field, the shape the HTTP API uses.
func parseDescriptor(data []byte) (facematch.Descriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("descriptor input is empty")
	}

	if data[0] == '{' {
		var wrapped struct {
			Descriptor facematch.Descriptor `json:"descriptor"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding descriptor: %w", err)
		}
		return wrapped.Descriptor, nil
	}

	var d facematch.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	return d, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
