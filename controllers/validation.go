package controllers

import (
	"fmt"
	"reflect"
	"strings"

	"virtualwardrobe/models"

	"github.com/go-playground/validator"
)

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct from the namespace, so nested fields read
// like preferences.occasion[0].
func fieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "password_strength":
		return "must contain at least one uppercase letter, one lowercase letter, and one number"
	case "calendar_date":
		return "must be a date in YYYY-MM-DD format"
	case "platform":
		return "must be one of ios, android, web"
	}
	if category, ok := models.PreferenceValidationTags[fe.Tag()]; ok {
		return "must be one of: " + strings.Join(models.PreferenceOptions[category], ", ")
	}
	return "is invalid"
}
