package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid document")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("build", func(fl validator.FieldLevel) bool {
			return IsBuild(Build(fl.Field().String()))
		})
		_ = v.RegisterValidation("gauge", func(fl validator.FieldLevel) bool {
			return GaugeOrdinal(fl.Param(), fl.Field().String()) >= 0
		})
		_ = v.RegisterValidation("area", func(fl validator.FieldLevel) bool {
			return IsArea(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks a document against its `validate` tags and returns an
// error wrapping ErrInvalid that names the offending fields.
func Validate(doc any) error {
	err := validatorInstance().Struct(doc)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fmt.Sprintf("%s(%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
