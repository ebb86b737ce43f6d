package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "general",
			Message: "section is missing",
		})
		return validationErrors
	}

	sections := []struct {
		name  string
		value any
	}{
		{"general", c.General},
		{"election", c.Election},
		{"routing", c.Routing},
		{"dns", c.DNS},
		{"notify", c.Notify},
		{"api", c.API},
	}
	for _, section := range sections {
		if reflect.ValueOf(section.value).IsNil() {
			continue
		}
		if err := validate.Struct(section.value); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, section.name)...)
		}
	}

	validationErrors = append(validationErrors, c.validateServiceOrder()...)
	validationErrors = append(validationErrors, c.validateRouting()...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateServiceOrder() ValidationErrors {
	var validationErrors ValidationErrors
	if c.Election == nil {
		return nil
	}
	seen := make(map[string]bool)

	for i, id := range c.Election.ServiceOrder {
		if seen[id] {
			validationErrors = append(validationErrors, ValidationError{
				ServiceID: id,
				Field:     fmt.Sprintf("election.service_order.%d", i),
				Message:   "service is listed more than once",
			})
		}
		seen[id] = true
	}

	return validationErrors
}

func (c *Config) validateRouting() ValidationErrors {
	var validationErrors ValidationErrors
	if c.Routing == nil {
		return nil
	}

	// Scoped tables start above the main table so the two ranges never meet.
	if c.Routing.ScopedTableBase <= c.Routing.MainTable && c.Routing.ScopedTableBase+maxInterfaceIndex > c.Routing.MainTable {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "routing.scoped_table_base",
			Message: fmt.Sprintf("scoped table range overlaps main table %d", c.Routing.MainTable),
		})
	}

	return validationErrors
}

// maxInterfaceIndex is the highest interface index expected on the target routers.
const maxInterfaceIndex = 4096

// convertValidatorErrors reports validator failures of one section.
func convertValidatorErrors(err error, section string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			field := section
			if e.Field() != "" {
				field = section + "." + e.Field()
			}
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Message: describeFieldError(e),
			})
		}
	}

	return validationErrors
}
