package validators

// Validator accumulates field-level validation errors keyed by the field
// name, so a single response can report every invalid field at once.
type Validator struct {
	Errors     map[string]any
	ErrorCodes []string
}

func NewValidator() *Validator {
	return &Validator{
		Errors:     make(map[string]any),
		ErrorCodes: make([]string, 0),
	}
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

// Check records message under key when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckError is a convenience method for checking if an error is nil. When
// message is empty the error text itself is recorded.
func (v *Validator) CheckError(err error, key, message string) *Validator {
	if err != nil && message == "" {
		message = err.Error()
	}
	v.Check(err == nil, key, message)
	return v
}

func (v *Validator) AddError(key, message string) {
	v.Errors[key] = message
}

func (v *Validator) WithErrorCode(code string) *Validator {
	v.ErrorCodes = append(v.ErrorCodes, code)
	return v
}
