package handler

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://waypoint.schemas.local/"

var (
	statusUpdateSchema     = mustCompile("status_update.schema.json")
	followUpResponseSchema = mustCompile("follow_up_response.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	s, err := compileSchema(name)
	if err != nil {
		panic(err)
	}
	return s
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("request schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	url := schemaBaseURL + name
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("request schema load failed: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("request schema compile failed: %w", err)
	}
	return compiled, nil
}
