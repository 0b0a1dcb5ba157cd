package service

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMealNotFound     = errors.New("meal not found")
	ErrAnalysisUnusable = errors.New("analysis did not yield a calorie estimate")
	ErrRateLimited      = errors.New("too many analysis requests")
	ErrEmptyInput       = errors.New("empty input")
	ErrInputTooShort    = errors.New("input too short")
	ErrInputTooLarge    = errors.New("input too large")
	ErrInvalidMealType  = errors.New("invalid meal type")
	ErrInvalidTimezone  = errors.New("invalid timezone")
)
