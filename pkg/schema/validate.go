package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"street": String(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks that every field in data is declared in the schema and
// conforms to its type. Fields absent from data are not required.
// Returns an error with all validation failures found, in key order.
func Validate(schema Schema, data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, fieldName := range keys {
		value := data[fieldName]
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
				Value:  value,
			})
			continue
		}
		if value == nil {
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	// If there are errors, aggregate them
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
