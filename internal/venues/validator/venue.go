package validator

import (
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type VenueValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVenueValidator(log *logger.Logger) *VenueValidator {
	return &VenueValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *VenueValidator) Validate(venue *model.Venue) error {
	return v.structErrors(v.validate.Struct(venue))
}

func (v *VenueValidator) ValidateCourt(court *model.Court) error {
	if err := v.structErrors(v.validate.Struct(court)); err != nil {
		return err
	}

	// The step hour and step price only make sense together.
	if (court.PriceStepHour == nil) != (court.PriceStepPrice == nil) {
		return ValidationErrors{
			ValidationError{
				Field:   "PriceStepHour",
				Message: "price_step_hour and price_step_price must be set together",
			},
		}
	}

	return nil
}

func (v *VenueValidator) structErrors(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs)
	}
	return err
}

func (v *VenueValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +541143211234)", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
