package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"megastrength/pkg/logger"
	"megastrength/pkg/model"
	"megastrength/pkg/sanitizer"

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

type BookingValidator struct {
	validate    *validator.Validate
	logger      *logger.Logger
	slots       []string
	phoneRegion string
}

// NewBookingValidator builds a validator that accepts only the given slot labels.
func NewBookingValidator(log *logger.Logger, slots []string, phoneRegion string) *BookingValidator {
	v := validator.New()
	bv := &BookingValidator{
		validate:    v,
		logger:      log,
		slots:       slices.Clone(slots),
		phoneRegion: phoneRegion,
	}

	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(model.Date); ok {
			if d.Invalid() {
				return d.Rejected()
			}
			return d.Time
		}
		return nil
	}, model.Date{})

	custom := map[string]validator.Func{
		"booking_service":  validateService,
		"booking_location": validateLocation,
		"booking_slot":     bv.validateSlot,
		"calendar_date":    validateCalendarDate,
		"mobile_phone":     bv.validateMobilePhone,
		"vehicle_year":     validateVehicleYear,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register booking validator", "tag", tag, "error", err)
		}
	}

	log.Info("Booking validator initialized successfully", "slots", bv.slots)
	return bv
}

// Slots returns the configured slot labels in order.
func (v *BookingValidator) Slots() []string {
	return slices.Clone(v.slots)
}

func (v *BookingValidator) IsSlot(slot string) bool {
	return slices.Contains(v.slots, slot)
}

// Validate reports every violated field of booking.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	return v.structErrors(booking)
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.StatusUpdate) error {
	return v.structErrors(update)
}

func (v *BookingValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func validateService(fl validator.FieldLevel) bool {
	return slices.Contains(model.Services, fl.Field().String())
}

func validateLocation(fl validator.FieldLevel) bool {
	return slices.Contains(model.Locations, fl.Field().String())
}

func (v *BookingValidator) validateSlot(fl validator.FieldLevel) bool {
	return v.IsSlot(fl.Field().String())
}

func (v *BookingValidator) validateMobilePhone(fl validator.FieldLevel) bool {
	return sanitizer.IsMobileNumber(fl.Field().String(), v.phoneRegion)
}

// validateCalendarDate fails for dates the JSON decoder could not parse; those reach
// the validator as their raw string.
func validateCalendarDate(fl validator.FieldLevel) bool {
	_, ok := fl.Field().Interface().(time.Time)
	return ok
}

func validateVehicleYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= 1900 && year <= int64(time.Now().Year()+1)
}

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

// fieldPath drops the root struct name: "Booking.vehicle_info.year" becomes "vehicle_info.year".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := fieldPath(err)
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "booking_service":
			message = fmt.Sprintf("%s must be one of: %s", field, strings.Join(model.Services, ", "))
		case "booking_location":
			message = fmt.Sprintf("%s must be one of: %s", field, strings.Join(model.Locations, ", "))
		case "booking_slot":
			message = fmt.Sprintf("%s must be one of: %s", field, strings.Join(v.slots, ", "))
		case "calendar_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD or RFC 3339 format", field)
		case "mobile_phone":
			message = fmt.Sprintf("%s must be a valid mobile phone number", field)
		case "vehicle_year":
			message = fmt.Sprintf("%s must be between 1900 and %d", field, time.Now().Year()+1)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}
