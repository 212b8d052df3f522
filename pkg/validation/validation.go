package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

// Validator couples a validator with its English translator.
type Validator struct {
	*validator.Validate
	translator ut.Translator
}

// New builds a validator that reports fields by their JSON names and carries
// English messages for the built-in tags.
func New() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{Validate: validate, translator: translator}
}

// Check validates payload and returns a VALIDATION_ERROR whose message starts
// with summary and lists the failing fields.
func (v *Validator) Check(payload interface{}, summary string) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, v.describe(err, summary))
}

// Messages returns the translated message of every failing field.
func (v *Validator) Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Translate(v.translator))
	}
	return out
}

func (v *Validator) describe(err error, summary string) string {
	msgs := v.Messages(err)
	if len(msgs) == 0 {
		return summary
	}
	return summary + ": " + strings.Join(msgs, "; ")
}
