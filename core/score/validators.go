package score

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-leaderboard/core"
)

var (
	// custom validation tags & texts
	gradeTag  = "grade"
	gradeText = "must be a grade between 1 and 12"

	notZeroTag  = "ne"
	notZeroText = "must not be zero"
)

// InitValidators registers the score validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)
	core.RegisterCustomTranslation(validate, translator, notZeroTag, notZeroText, true)
}

func gradeValidation(fl validator.FieldLevel) bool {
	return IsValidGrade(fl.Field().String())
}
