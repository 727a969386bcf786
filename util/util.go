package util

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/autom8ter/crudquery/errors"
	"github.com/ghodss/yaml"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

func init() {
	// report json field names instead of go struct field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct validates the struct tags of val. The first failing field is reported as an errors.Validation error.
func ValidateStruct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(err, errors.Validation, "")
	}
	fe := verrs[0]
	return errors.Invalid(fieldPath(fe), tagReason(fe.Tag()), "invalid '%s': failed on the '%s' rule", fieldPath(fe), fe.Tag())
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	// drop the struct name
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func tagReason(tag string) errors.Reason {
	switch tag {
	case "required":
		return errors.Required
	case "oneof":
		return errors.NotAllowed
	case "min", "max", "gte", "lte", "gt", "lt":
		return errors.Range
	default:
		return errors.Type
	}
}

// Decode decodes the input into the output based on json tags
func Decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		WeaklyTypedInput:     true,
		Result:               output,
		TagName:              "json",
		IgnoreUntaggedFields: true,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// JSONString returns a json string of the input
func JSONString(input any) string {
	bits, _ := json.Marshal(input)
	return string(bits)
}

// YAMLToJSON converts yaml to json. Json input is returned as is.
func YAMLToJSON(yamlContent []byte) ([]byte, error) {
	if isJSON(string(yamlContent)) {
		return yamlContent, nil
	}
	bits, err := yaml.YAMLToJSON(yamlContent)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to convert yaml to json")
	}
	return bits, nil
}

// JSONToYAML converts json to yaml
func JSONToYAML(jsonContent []byte) ([]byte, error) {
	return yaml.JSONToYAML(jsonContent)
}

func isJSON(str string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(str), &js) == nil
}
