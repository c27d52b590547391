package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the rules that span fields. Load calls
// it automatically.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required for the redis driver")
		}
	}
	if c.Analyzer.Mode == "offline" && c.Analyzer.DictionaryPath == "" {
		return errors.New("analyzer.dictionary_path is required in offline mode")
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Namespace is "Config.API.BaseURL"; drop the root.
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	field = strings.ToLower(field)

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", field, e.Tag(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
