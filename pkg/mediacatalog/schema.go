package mediacatalog

// Requirement names one attribute that must be present in a payload
type Requirement struct {
	Field   string
	Message string
}

// Schema is the list of attributes an operation requires
type Schema []Requirement

// EntrySchema applies to entry create and update payloads
var EntrySchema = Schema{
	{Field: KeyTitle, Message: "Title is required!"},
	{Field: KeyYear, Message: "Year is required!"},
	{Field: KeyType, Message: "Type is required!"},
}

// ReviewSchema applies to review create and update payloads
var ReviewSchema = Schema{
	{Field: KeyRate, Message: "Rate is required!"},
	{Field: KeyComment, Message: "Comment is required!"},
}

// Validate checks presence only. An explicit null counts as present; content
// is not inspected.
func (s Schema) Validate(fields Fields) error {
	var missing []FieldError
	for _, req := range s {
		if !fields.Has(req.Field) {
			missing = append(missing, FieldError{
				Param:    req.Field,
				Msg:      req.Message,
				Location: "body",
			})
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
