package util

import "errors"

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizNotPublished     = errors.New("quiz not published or not accessible")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrQuizTimeExpired      = errors.New("quiz time limit expired")
	ErrInvalidPercentage    = errors.New("percentage must be between 0 and 100")
	ErrProgressRegression   = errors.New("percentage cannot decrease after completion")
)
