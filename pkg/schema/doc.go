// Package schema validates engine-supplied documents against embedded JSON Schemas.
//
// Two documents are checked: the workflow layout snapshot before it is
// deserialized, and each field definition of a node interface before a form
// is built from it. Failures are reported as an *AggregateError of
// *ValidationError, one per offending location.
//
//	v := schema.Default()
//	valid, err := v.ValidateInterface(record.Interface)
//	for _, e := range schema.ValidationErrors(err) {
//	    log.Warn("skipping field", "err", e)
//	}
package schema
