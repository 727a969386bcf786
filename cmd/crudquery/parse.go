package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	transport "github.com/autom8ter/crudquery/transport/http"
	"github.com/spf13/cobra"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputFlat = "flat"
)

func parseCmd() *cobra.Command {
	var (
		output     string
		tmpl       string
		expression bool
	)
	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "parse and validate a request query string",
		Long: `Parse and validate a request query string.

The parsed request is written as json (default), yaml or flattened key/value pairs,
or rendered with a go template (sprig functions available):
  crudquery parse 'fields=name&filter=age||gte||18' --template '{{ range .filter }}{{ .field | upper }} {{ end }}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := crudquery.NewRequestQueryParser().ParseString(args[0])
			if err != nil {
				return err
			}
			var value any = req
			if expression {
				value = req.Expression()
			}
			out, err := render(value, output, tmpl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(out, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json, yaml or flat")
	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "go template rendered with the parsed request")
	cmd.Flags().BoolVarP(&expression, "expression", "x", false, "output the merged search expression instead of the parsed request")
	return cmd
}

func render(value any, output string, tmpl string) (string, error) {
	bits, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, errors.Internal, "failed to encode output")
	}
	if tmpl != "" {
		var data map[string]any
		if err := json.Unmarshal(bits, &data); err != nil {
			return "", errors.Wrap(err, errors.Internal, "failed to decode output")
		}
		t, err := template.New("").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
		if err != nil {
			return "", errors.Wrap(err, errors.Validation, "invalid template")
		}
		buf := bytes.NewBuffer(nil)
		if err := t.Execute(buf, data); err != nil {
			return "", errors.Wrap(err, errors.Validation, "failed to render template")
		}
		return buf.String(), nil
	}
	switch output {
	case outputJSON:
		indented := bytes.NewBuffer(nil)
		if err := json.Indent(indented, bits, "", "  "); err != nil {
			return "", errors.Wrap(err, errors.Internal, "failed to encode output")
		}
		return indented.String(), nil
	case outputYAML:
		yml, err := util.JSONToYAML(bits)
		if err != nil {
			return "", err
		}
		return string(yml), nil
	case outputFlat:
		req, ok := value.(*crudquery.ParsedRequest)
		if !ok {
			return "", errors.Invalid("output", errors.NotAllowed, "flat output is only supported for parsed requests")
		}
		flattened, err := transport.FlattenRequest(req)
		if err != nil {
			return "", errors.Wrap(err, errors.Internal, "failed to flatten output")
		}
		return util.JSONString(flattened), nil
	default:
		return "", errors.Invalid("output", errors.NotAllowed, "unsupported output format '%s'", output)
	}
}
