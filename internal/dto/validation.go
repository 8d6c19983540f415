package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
)

// custom validation tags
const (
	notBlankTag     = "notblank"
	hhmmTag         = "hhmm"
	calendarDateTag = "calendardate"
)

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine and
// makes errors report JSON field names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin binding engine is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		if err = v.RegisterValidation(notBlankTag, notBlankValidation); err != nil {
			return
		}
		if err = v.RegisterValidation(hhmmTag, hhmmValidation); err != nil {
			return
		}
		err = v.RegisterValidation(calendarDateTag, calendarDateValidation)
	})
	return err
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func hhmmValidation(fl validator.FieldLevel) bool {
	return domain.IsValidStartTime(fl.Field().String())
}

func calendarDateValidation(fl validator.FieldLevel) bool {
	_, ok := domain.ParseDate(fl.Field().String())
	return ok
}

// ValidationDetails flattens binding errors into "field: rule" pairs
func ValidationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	return strings.Join(parts, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", notBlankTag:
		return "is required"
	case hhmmTag:
		return "must be HH:MM"
	case calendarDateTag:
		return "must be YYYY-MM-DD"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
