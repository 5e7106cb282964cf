package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/letsencrypt/validator/v10"
)

// ReadConfigFile unmarshals the JSON file at filename into out and validates
// the result against out's `validate` struct tags. Unknown fields are
// rejected so a typo in a config file fails loudly instead of silently
// falling back to a default.
func ReadConfigFile(filename string, out interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	err = decoder.Decode(out)
	if err != nil {
		return fmt.Errorf("parsing config file %q: %w", filename, err)
	}
	return validateConfig(out)
}

func validateConfig(cfg interface{}) error {
	err := validator.New().Struct(cfg)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			var details []string
			for _, fe := range validationErrs {
				details = append(details, fmt.Sprintf("field %q fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("validating config file: %s", strings.Join(details, ", "))
		}
		return fmt.Errorf("validating config file: %w", err)
	}
	return nil
}
