package main

import (
	"encoding/json"
	"os"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/samber/lo"
)

// loadOptions reads options from a yaml or json file and installs them as the process-wide defaults
func loadOptions(path string) error {
	bits, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to read config file %s", path)
	}
	bits, err = util.YAMLToJSON(bits)
	if err != nil {
		return err
	}
	var options crudquery.Options
	if err := json.Unmarshal(bits, &options); err != nil {
		return errors.Wrap(err, errors.Validation, "invalid config file %s", path)
	}
	for param := range options.ParamNamesMap {
		if !lo.Contains(crudquery.Params(), param) {
			return errors.Invalid("paramNamesMap", errors.NotAllowed, "unknown param '%s' in config file %s", param, path)
		}
	}
	crudquery.SetOptions(options)
	return nil
}
