package backup

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mapping is one source path with its ordered destination list.
type Mapping struct {
	Source       string
	Destinations []string
}

// ParseMappings parses a backup job's mappings JSON. The input must be a
// JSON object whose keys are source paths and whose values are non-empty
// arrays of destination paths. Declared key order is preserved, which is
// why this walks the token stream instead of unmarshaling into a map.
func ParseMappings(raw string) ([]Mapping, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidMapping)
	}

	var mappings []Mapping
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
		}
		source, ok := keyTok.(string)
		if !ok || source == "" {
			return nil, fmt.Errorf("%w: source path must be a non-empty string", ErrInvalidMapping)
		}

		var destinations []string
		if err := dec.Decode(&destinations); err != nil {
			return nil, fmt.Errorf("%w: destinations for %q must be an array of strings", ErrInvalidMapping, source)
		}
		if len(destinations) == 0 {
			return nil, fmt.Errorf("%w: %q has no destinations", ErrInvalidMapping, source)
		}
		for _, d := range destinations {
			if d == "" {
				return nil, fmt.Errorf("%w: %q has an empty destination", ErrInvalidMapping, source)
			}
		}

		mappings = append(mappings, Mapping{Source: source, Destinations: destinations})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("%w: at least one mapping is required", ErrInvalidMapping)
	}
	return mappings, nil
}
