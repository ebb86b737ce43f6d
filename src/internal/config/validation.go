package config

import (
	"fmt"
	"net"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Kernel tables a route table setting must not point at.
var reservedTables = map[int]string{
	0:   "unspec",
	253: "default",
	255: "local",
}

// ValidationError is one problem found in the configuration.
type ValidationError struct {
	// ServiceID names the offending service when the problem concerns one.
	ServiceID string
	// Field is the TOML path of the setting, e.g. "routing.main_table".
	Field   string
	Message string
}

// ValidationErrors collects every problem of a configuration.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "configuration is valid"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid configuration (%d problem(s)):\n", len(ve))
	for _, e := range ve {
		if e.ServiceID != "" {
			fmt.Fprintf(&sb, "  - %s (service %s): %s\n", e.Field, e.ServiceID, e.Message)
		} else {
			fmt.Fprintf(&sb, "  - %s: %s\n", e.Field, e.Message)
		}
	}
	return sb.String()
}

// describeFieldError turns a validator failure into a message about the
// setting it concerns.
func describeFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		if e.Field() == "state_file" {
			return "path of the service state file is required"
		}
		return "value is required"
	case "min", "gte":
		switch e.Field() {
		case "default_search_order":
			return fmt.Sprintf("default resolver search order must be at least %s", e.Param())
		case "grace_period_ms":
			return fmt.Sprintf("notification grace period must be at least %sms", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "service_id":
		return fmt.Sprintf("service ID %q must not be empty or contain '/' or whitespace", e.Value())
	case "route_table":
		return fmt.Sprintf("table %v is reserved by the kernel", e.Value())
	case "hostport_or_empty":
		return "must be host:port (e.g. 127.0.0.1:12121) or empty"
	default:
		return fmt.Sprintf("failed %q check", e.Tag())
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	for tag, fn := range map[string]validator.Func{
		"service_id":        validateServiceID,
		"route_table":       validateRouteTable,
		"hostport_or_empty": validateHostPortOrEmpty,
	} {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Service IDs become store key components, so '/' would split the key.
func validateServiceID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
}

func validateRouteTable(fl validator.FieldLevel) bool {
	_, reserved := reservedTables[int(fl.Field().Int())]
	return !reserved
}

func validateHostPortOrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, _, err := net.SplitHostPort(value)
	return err == nil
}
