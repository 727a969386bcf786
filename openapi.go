package crudquery

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml.tmpl
var openapiTemplate string

// SpecConfig are custom params for generating an openapi specification
type SpecConfig struct {
	Title       string `json:"title" yaml:"title" validate:"required"`
	Version     string `json:"version" yaml:"version" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	// Path is the path of the documented endpoint. It defaults to /api/query
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Resource names the queried resource in the operation summary
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty"`
}

// OpenAPIParameters describes every query param of the grammar as an openapi query parameter
func OpenAPIParameters(o Options) openapi3.Parameters {
	var (
		params  openapi3.Parameters
		explode = true
		implode = false
	)
	for _, param := range Params() {
		names := o.Names(param)
		if len(names) == 0 {
			continue
		}
		p := openapi3.NewQueryParameter(names.Primary()).WithDescription(describe(param, names, o))
		switch {
		case param == ParamFields:
			p.Style = openapi3.SerializationForm
			p.Explode = &implode
			p = p.WithSchema(openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
		case param.IsList():
			p.Style = openapi3.SerializationForm
			p.Explode = &explode
			p = p.WithSchema(openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
		case param.IsNumeric():
			lowest := 0.0
			if param == ParamLimit || param == ParamPage {
				lowest = 1
			}
			p = p.WithSchema(openapi3.NewIntegerSchema().WithMin(lowest))
		default:
			p = p.WithSchema(openapi3.NewStringSchema())
		}
		params = append(params, &openapi3.ParameterRef{Value: p})
	}
	return params
}

func describe(param Param, names Names, o Options) string {
	var desc string
	switch param {
	case ParamFields:
		desc = fmt.Sprintf("Selects resource fields. Syntax: field1%sfield2", o.DelimStr)
	case ParamSearch:
		desc = `Adds a json search condition. Syntax: {"field": {"$operator": value}}`
	case ParamFilter:
		desc = fmt.Sprintf("Adds an and-ed filter condition. Syntax: field%soperator%svalue", o.Delim, o.Delim)
	case ParamOr:
		desc = fmt.Sprintf("Adds an or-ed filter condition. Syntax: field%soperator%svalue", o.Delim, o.Delim)
	case ParamJoin:
		desc = fmt.Sprintf("Adds a relation. Syntax: relation%sfield1%sfield2", o.Delim, o.DelimStr)
	case ParamSort:
		desc = fmt.Sprintf("Adds a sort clause. Syntax: field%sASC|DESC", o.DelimStr)
	case ParamLimit:
		desc = "Limits the number of resources returned"
	case ParamOffset:
		desc = "Skips the given number of resources"
	case ParamPage:
		desc = "Selects the page of resources"
	case ParamCache:
		desc = "Set to 0 to bypass the result cache"
	case ParamIncludeDeleted:
		desc = "Set to 1 to include soft deleted resources"
	}
	if len(names) > 1 {
		desc = fmt.Sprintf("%s. Aliases: %s", desc, strings.Join(names[1:], ", "))
	}
	return desc
}

// OpenAPISpec renders an openapi specification documenting an endpoint that accepts the query grammar
func OpenAPISpec(ctx context.Context, cfg SpecConfig, o Options) ([]byte, error) {
	if err := util.ValidateStruct(&cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		cfg.Path = "/api/query"
	}
	if cfg.Resource == "" {
		cfg.Resource = "resources"
	}
	t, err := template.New("").Funcs(sprig.FuncMap()).Parse(openapiTemplate)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to parse openapi template")
	}
	buf := bytes.NewBuffer(nil)
	err = t.Execute(buf, map[string]any{
		"title":       cfg.Title,
		"description": cfg.Description,
		"version":     cfg.Version,
		"path":        cfg.Path,
		"resource":    cfg.Resource,
		"parameters":  util.JSONString(OpenAPIParameters(o)),
		"reasons": []string{
			string(errors.Required),
			string(errors.Type),
			string(errors.NotAllowed),
			string(errors.Arity),
			string(errors.Range),
			string(errors.Syntax),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to render openapi template")
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "invalid openapi spec")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.Internal, "invalid openapi spec")
	}
	return buf.Bytes(), nil
}
