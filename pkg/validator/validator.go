package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describe un campo que no pasó la validación.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: falla la regla %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s: falla la regla %s", e.Field, e.Tag)
}

var validate = validator.New()

// ValidateStruct valida los tags `validate` de un struct y devuelve los campos
// que fallan. Slice vacío = payload válido.
func ValidateStruct(data interface{}) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var fails []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		fails = append(fails, FieldError{
			Field: fe.StructNamespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return fails
}

// Describe concatena los errores de campo en un solo mensaje legible.
func Describe(fails []FieldError) string {
	parts := make([]string, 0, len(fails))
	for _, f := range fails {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "; ")
}
