package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/yourusername/tradesim/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("fallbackmode", validateFallbackMode)
	_ = v.RegisterValidation("cronspec", validateCronSpec)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateFallbackMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "fail", "synthetic":
		return true
	default:
		return false
	}
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	start, err := time.Parse(models.DateLayout, cfg.Backtest.StartDate)
	if err != nil {
		return fmt.Errorf("%w: invalid backtest start_date: %v", models.ErrInvalidConfig, err)
	}
	end, err := time.Parse(models.DateLayout, cfg.Backtest.EndDate)
	if err != nil {
		return fmt.Errorf("%w: invalid backtest end_date: %v", models.ErrInvalidConfig, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: backtest start_date must be before end_date", models.ErrInvalidConfig)
	}

	if cfg.Backtest.Commission >= cfg.Backtest.InitialCapital {
		return fmt.Errorf("%w: backtest commission must be smaller than initial_capital", models.ErrInvalidConfig)
	}

	switch cfg.DataSource.Type {
	case "csv":
		if cfg.DataSource.CSVPath == "" {
			return fmt.Errorf("%w: data_source.csv_path is required for csv sources", models.ErrInvalidConfig)
		}
	case "alphavantage":
		if cfg.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for alphavantage", models.ErrInvalidConfig)
		}
		if cfg.DataSource.APIKey == "" && !cfg.Secrets.Enabled {
			return fmt.Errorf("%w: data_source.api_key is required for alphavantage unless secrets are enabled", models.ErrInvalidConfig)
		}
	}

	if cfg.Scheduler.Enabled {
		if cfg.Scheduler.PredictionRefresh == "" {
			return fmt.Errorf("%w: scheduler.prediction_refresh is required when the scheduler is enabled", models.ErrInvalidConfig)
		}
		if len(cfg.Scheduler.Symbols) == 0 {
			return fmt.Errorf("%w: scheduler.symbols must list at least one symbol", models.ErrInvalidConfig)
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("%w: secrets.region and secrets.secret_name are required when secrets are enabled", models.ErrInvalidConfig)
	}

	if cfg.IsProduction() && cfg.App.LogLevel == "debug" {
		return fmt.Errorf("%w: debug logging is not allowed in production", models.ErrInvalidConfig)
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max", "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s=%s violated\n", field, tag, fieldError.Param())
		case "datetime":
			fmt.Fprintf(&b, "- Field '%s' must be a date in YYYY-MM-DD form, got '%v'\n", field, value)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "fallbackmode":
			fmt.Fprintf(&b, "- Field '%s' must be one of: fail, synthetic\n", field)
		case "cronspec":
			fmt.Fprintf(&b, "- Field '%s' is not a valid cron expression: '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v', allowed: %s\n", field, value, fieldError.Param())
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("%w: configuration validation failed:\n%s", models.ErrInvalidConfig, b.String())
}
