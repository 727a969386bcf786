package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/huandu/xstrings"
	"github.com/spf13/cobra"
)

func flagName(p crudquery.Param) string {
	return xstrings.ToKebabCase(string(p))
}

func buildCmd() *cobra.Command {
	var (
		file       string
		fields     []string
		search     string
		filter     []string
		or         []string
		join       []string
		sort       []string
		numerics   = map[crudquery.Param]*int{}
		resetCache bool
		encode     bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "build a request query string",
		Long: `Build a request query string from a yaml/json params file and/or flags.

Conditions, joins and sort clauses are given as json shorthand lists:
  crudquery build --fields name,email --filter '["age","gte",18]' --join '["company",["id","name"]]' --sort '["name","ASC"]' --limit 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := crudquery.NewRequestQueryBuilder()
			if file != "" {
				params, err := readParams(file)
				if err != nil {
					return err
				}
				b = crudquery.Create(params)
			}
			b.Select(fields...)
			if search != "" {
				var s crudquery.SCondition
				if err := json.Unmarshal([]byte(search), &s); err != nil {
					return errors.Invalid(string(crudquery.ParamSearch), errors.Syntax, "invalid search: %s", err.Error())
				}
				b.Search(s)
			}
			for _, f := range []struct {
				param  crudquery.Param
				values []string
				apply  func(args ...any) *crudquery.RequestQueryBuilder
			}{
				{crudquery.ParamFilter, filter, b.SetFilter},
				{crudquery.ParamOr, or, b.SetOr},
				{crudquery.ParamJoin, join, b.SetJoin},
				{crudquery.ParamSort, sort, b.SortBy},
			} {
				for _, raw := range f.values {
					var shorthand []any
					if err := json.Unmarshal([]byte(raw), &shorthand); err != nil {
						return errors.Invalid(string(f.param), errors.Syntax, "invalid %s: json list expected: %s", f.param, err.Error())
					}
					f.apply(shorthand)
				}
			}
			for _, p := range []crudquery.Param{crudquery.ParamLimit, crudquery.ParamOffset, crudquery.ParamPage, crudquery.ParamIncludeDeleted} {
				if !cmd.Flags().Changed(flagName(p)) {
					continue
				}
				switch p {
				case crudquery.ParamLimit:
					b.SetLimit(*numerics[p])
				case crudquery.ParamOffset:
					b.SetOffset(*numerics[p])
				case crudquery.ParamPage:
					b.SetPage(*numerics[p])
				case crudquery.ParamIncludeDeleted:
					b.SetIncludeDeleted(*numerics[p])
				}
			}
			if resetCache {
				b.ResetCache()
			}
			query, err := b.Query(encode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), query)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a yaml or json file of query params")
	cmd.Flags().StringSliceVar(&fields, flagName(crudquery.ParamFields), nil, "fields to select")
	cmd.Flags().StringVar(&search, flagName(crudquery.ParamSearch), "", "json search expression")
	cmd.Flags().StringArrayVar(&filter, flagName(crudquery.ParamFilter), nil, `and-ed condition as a json list: '["field","operator",value]'`)
	cmd.Flags().StringArrayVar(&or, flagName(crudquery.ParamOr), nil, `or-ed condition as a json list: '["field","operator",value]'`)
	cmd.Flags().StringArrayVar(&join, flagName(crudquery.ParamJoin), nil, `relation as a json list: '["relation",["field"]]'`)
	cmd.Flags().StringArrayVar(&sort, flagName(crudquery.ParamSort), nil, `sort clause as a json list: '["field","ASC"]'`)
	for _, p := range []crudquery.Param{crudquery.ParamLimit, crudquery.ParamOffset, crudquery.ParamPage, crudquery.ParamIncludeDeleted} {
		numerics[p] = cmd.Flags().Int(flagName(p), 0, fmt.Sprintf("%s param", p))
	}
	cmd.Flags().BoolVar(&resetCache, "reset-cache", false, "bypass the server side result cache")
	cmd.Flags().BoolVarP(&encode, "encode", "e", false, "percent-encode the query string")
	return cmd
}

func readParams(path string) (*crudquery.CreateParams, error) {
	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to read params file %s", path)
	}
	bits, err = util.YAMLToJSON(bits)
	if err != nil {
		return nil, err
	}
	var params crudquery.CreateParams
	if err := json.Unmarshal(bits, &params); err != nil {
		return nil, errors.Wrap(err, errors.Validation, "invalid params file %s", path)
	}
	return &params, nil
}
