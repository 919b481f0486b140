package server

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable that overrides a config field.
// BROWSERMCP_RUNTIME_STREAMABLEHTTPCONFIG_PORT overrides runtime.streamableHttpConfig.port.
const EnvPrefix = "BROWSERMCP"

type ConfigOverrider interface {
	ApplyOverrides(config *BrowserServerConfig) error
}

type envOverrider struct {
	lookup func(string) (string, bool)
}

func NewEnvOverrider() ConfigOverrider {
	return &envOverrider{lookup: os.LookupEnv}
}

func (e *envOverrider) ApplyOverrides(config *BrowserServerConfig) error {
	_, err := e.processStruct(reflect.ValueOf(config).Elem(), EnvPrefix)
	return err
}

// processStruct walks the exported fields of val, setting any that have a matching variable.
// Nil struct pointers are only allocated when something below them was overridden.
func (e *envOverrider) processStruct(val reflect.Value, prefix string) (bool, error) {
	typ := val.Type()

	updated := false
	for i := 0; i < val.NumField(); i++ {
		fieldVal := val.Field(i)
		fieldTyp := typ.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		key := buildEnvKey(prefix, fieldTyp.Name)

		switch {
		case fieldVal.Kind() == reflect.Ptr && fieldVal.Type().Elem().Kind() == reflect.Struct:
			wasNil := fieldVal.IsNil()
			if wasNil {
				fieldVal.Set(reflect.New(fieldVal.Type().Elem()))
			}
			nestedUpdated, err := e.processStruct(fieldVal.Elem(), key)
			if err != nil {
				return updated, err
			}
			if nestedUpdated {
				updated = true
			} else if wasNil {
				fieldVal.Set(reflect.Zero(fieldVal.Type()))
			}
			continue
		case fieldVal.Kind() == reflect.Struct:
			// embedded structs do not add their type name to the key
			keyPrefix := key
			if fieldTyp.Anonymous {
				keyPrefix = prefix
			}
			nestedUpdated, err := e.processStruct(fieldVal, keyPrefix)
			if err != nil {
				return updated, err
			}
			updated = updated || nestedUpdated
			continue
		}

		envVal, found := e.lookup(key)
		if !found {
			continue
		}

		if err := setField(fieldVal, envVal); err != nil {
			return updated, fmt.Errorf("error setting field %s from env var %s: %w", fieldTyp.Name, key, err)
		}
		updated = true
	}

	return updated, nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %v", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setField(field.Elem(), value)
	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type: %v", field.Type().Key().Kind())
		}
		mapValue := reflect.New(field.Type())
		if err := json.Unmarshal([]byte(value), mapValue.Interface()); err != nil {
			return fmt.Errorf("failed to parse map value as JSON: %w", err)
		}
		field.Set(mapValue.Elem())
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func buildEnvKey(prefix, name string) string {
	if prefix == "" {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(prefix + "_" + name)
}
