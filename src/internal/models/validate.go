package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateEntity checks an entity against its struct tags and a few
// cross-field rules. Any failure is reported as a MalformedEntity error.
func ValidateEntity(entity any) error {
	if entity == nil {
		return nil
	}
	if rv := reflect.ValueOf(entity); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}

	if err := validate.Struct(entity); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			e := fieldErrs[0]
			return ipmonerrors.NewMalformedEntityError(
				fmt.Sprintf("field %s failed %q validation", e.Field(), e.Tag()), err)
		}
		return ipmonerrors.NewMalformedEntityError("entity validation failed", err)
	}

	switch v := entity.(type) {
	case *IPv4Info:
		if len(v.SubnetMasks) > 0 && len(v.SubnetMasks) != len(v.Addresses) {
			return ipmonerrors.NewMalformedEntityError("subnet_masks does not match addresses", nil)
		}
	case *IPv6Info:
		if len(v.PrefixLengths) > 0 && len(v.PrefixLengths) != len(v.Addresses) {
			return ipmonerrors.NewMalformedEntityError("prefix_lengths does not match addresses", nil)
		}
	case *DNSInfo:
		if len(v.SupplementalMatchOrders) > len(v.SupplementalMatchDomains) {
			return ipmonerrors.NewMalformedEntityError("more supplemental_match_orders than domains", nil)
		}
	}
	return nil
}

// Validate drops every malformed entity of the record and returns the
// errors it found, keyed by entity type.
func (s *ServiceRecord) Validate() map[EntityType]error {
	var found map[EntityType]error
	check := func(entity EntityType, v any) {
		if err := ValidateEntity(v); err != nil {
			if found == nil {
				found = make(map[EntityType]error)
			}
			found[entity] = err
			s.SetEntity(entity, nil)
		}
	}
	check(EntityIPv4, s.IPv4)
	check(EntityIPv6, s.IPv6)
	check(EntityDNS, s.DNS)
	check(EntityProxies, s.Proxy)
	check(EntityService, s.Options)
	check(EntityVPN, s.VPN)
	return found
}
