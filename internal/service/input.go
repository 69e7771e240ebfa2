package service

import (
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate = validator.New()
	strip    = bluemonday.StrictPolicy()
)

const maxSanitizePasses = 8

// sanitize removes markup from free text and trims it. Entities are decoded
// so "&" stays readable, and the text is stripped again until nothing
// changes, so encoded tags cannot come back as markup.
func sanitize(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		clean := html.UnescapeString(strip.Sanitize(s))
		if clean == s {
			return strings.TrimSpace(clean)
		}
		s = clean
	}
	return strings.TrimSpace(strip.Sanitize(s))
}

type clientFields struct {
	Name  string `validate:"required,min=3,max=100"`
	Email string `validate:"required,email,max=254"`
	Phone string `validate:"required,len=10,number"`
}

type tariffFields struct {
	Name     string `validate:"required,min=3,max=100"`
	IDNumber string `validate:"required,min=5,max=15,number"`
}

var fieldMessages = map[string]string{
	"clientFields.Name":     "El nombre debe tener entre 3 y 100 caracteres",
	"clientFields.Email":    "El email no es válido",
	"clientFields.Phone":    "El celular debe tener exactamente 10 dígitos",
	"tariffFields.Name":     "El nombre del gemellista debe tener entre 3 y 100 caracteres",
	"tariffFields.IDNumber": "La cédula del gemellista debe tener entre 5 y 15 dígitos",

	"registerFields.Email":    "El email no es válido",
	"registerFields.Name":     "El nombre debe tener entre 2 y 100 caracteres",
	"registerFields.Password": "La contraseña debe tener entre 8 y 72 caracteres",
}

// checkStruct validates v and returns the message of its first failing field.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].StructNamespace()]; ok {
			return validationError("%s", msg)
		}
		return validationError("Campo inválido: %s", verrs[0].Field())
	}
	return &Error{Kind: KindInternal, Message: msgInternal, Err: err}
}
