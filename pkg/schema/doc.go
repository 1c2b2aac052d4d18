// Package schema provides value shape validation for form controls.
//
// It defines a small type system (string, bool, slices, maps and custom
// validators) used to reject values whose shape does not match a control kind
// before any constraint is checked. Schemas map field names to types and are
// used to validate group values, where every key is a child control name.
//
// Basic usage:
//
//	address := schema.Schema{
//	    "street": schema.String(),
//	    "tags":   schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(address, map[string]any{"street": "Main St"}); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // Handle each field failure
//	    }
//	}
//
// Custom validators can be registered for domain-specific checks:
//
//	nonBlank := schema.Custom("non_blank", func(v any) error {
//	    s, ok := v.(string)
//	    if !ok || strings.TrimSpace(s) == "" {
//	        return fmt.Errorf("must not be blank")
//	    }
//	    return nil
//	})
//
// AggregateError is also used by the definition validator to report every
// structural problem of a form definition at once.
package schema
