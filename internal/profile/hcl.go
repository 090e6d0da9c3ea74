package profile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// parseHCL reads the HCL profile form:
//
//	profile "default" {
//	  variables = {
//	    SERVER = "http://localhost"
//	    TOKEN  = { pass = "dev/token" }
//	    ID     = { request = "create.http" }
//	  }
//	}
func parseHCL(path string) (map[string]*Profile, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("error reading profile from %s: %s", path, diags.Error())
	}

	content, diags := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "profile", LabelNames: []string{"name"}}},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("error reading profile from %s: %s", path, diags.Error())
	}

	profiles := map[string]*Profile{}
	for _, block := range content.Blocks {
		name := block.Labels[0]
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("profile '%s': %s", name, diags.Error())
		}

		variables := map[string]Variable{}
		if attr, ok := attrs["variables"]; ok {
			value, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("profile '%s' variables: %s", name, diags.Error())
			}
			if !value.Type().IsObjectType() && !value.Type().IsMapType() {
				return nil, fmt.Errorf("profile '%s' variables must be a map", name)
			}
			for key, entry := range value.AsValueMap() {
				variable, err := variableFromCty(name, key, entry)
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

func variableFromCty(profileName, key string, value cty.Value) (Variable, error) {
	if value.Type() == cty.String {
		return Literal(value.AsString()), nil
	}
	if value.Type().IsObjectType() || value.Type().IsMapType() {
		m := value.AsValueMap()
		if pass, ok := m["pass"]; ok && pass.Type() == cty.String {
			return &Secret{Path: pass.AsString()}, nil
		}
		if request, ok := m["request"]; ok && request.Type() == cty.String {
			return RequestRef{Request: request.AsString()}, nil
		}
	}
	return nil, fmt.Errorf("profile '%s' variable '%s' must be a string, { pass = … } or { request = … }", profileName, key)
}
