package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// Parse reads every profile in a profile file. Files ending in .hcl use
// the HCL form; everything else is the JSON form mapping profile names to
// {"variables": {…}}.
func Parse(path string) (map[string]*Profile, error) {
	if strings.HasSuffix(strings.ToLower(path), ".hcl") {
		return parseHCL(path)
	}
	return parseJSON(path)
}

// Select loads the effective profile: the "default" profile (if present)
// overlaid with the named profile. An empty name selects just the
// default layer; naming a profile the file does not define is an error.
func Select(path, name string) (*Profile, error) {
	profiles, err := Parse(path)
	if err != nil {
		return nil, err
	}

	effective, ok := profiles["default"]
	if !ok {
		effective = Empty(path)
	}
	if name != "" {
		named, ok := profiles[name]
		if !ok {
			return nil, fmt.Errorf("profile not found")
		}
		effective.Override(named)
	}
	return effective, nil
}

func parseJSON(path string) (map[string]*Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error opening file %s", path)
	}
	doc, err := oj.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("error reading profile from %s", path)
	}

	top, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error reading profile from %s", path)
	}

	profiles := make(map[string]*Profile, len(top))
	for name, entry := range top {
		body, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("profile '%s' must be an object", name)
		}
		variables := map[string]Variable{}
		if rawVars, present := body["variables"]; present {
			varsMap, ok := rawVars.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("profile '%s' variables must be an object", name)
			}
			for key, value := range varsMap {
				variable, err := variableFromJSON(name, key, value)
				if err != nil {
					return nil, err
				}
				variables[key] = variable
			}
		}
		profiles[name] = New(path, variables)
	}
	return profiles, nil
}

func variableFromJSON(profileName, key string, value any) (Variable, error) {
	switch v := value.(type) {
	case string:
		return Literal(v), nil
	case map[string]any:
		if pass, ok := v["pass"].(string); ok {
			return &Secret{Path: pass}, nil
		}
		if request, ok := v["request"].(string); ok {
			return RequestRef{Request: request}, nil
		}
	}
	return nil, fmt.Errorf("profile '%s' variable '%s' must be a string, {\"pass\": …} or {\"request\": …}", profileName, key)
}
