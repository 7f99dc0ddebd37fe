package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g *Gender) Scan(value interface{}) error {
	*g = Gender(value.(string))
	return nil
}

func (g Gender) Value() string {
	return string(g)
}

func ScanGender(value string) Gender {
	return Gender(value)
}

func ValidateGender(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^male|female|other$", string(value))
	return matched
}

func ValidateGenderRaw(value string) bool {
	matched, _ := regexp.MatchString("^male|female|other$", value)
	return matched
}
