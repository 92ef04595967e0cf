package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubjectNotFound is returned for subjects outside the catalog or without a bank.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrNoQuestions indicates a subject has no usable questions.
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoChoices indicates a question without choices.
	ErrNoChoices = errors.New("question has no choices")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted choice ID is invalid.
	ErrOptionNotFound = errors.New("choice not found")
	// ErrLoadInProgress is returned when the same subject is already being fetched.
	ErrLoadInProgress = errors.New("subject load already in progress")
	// ErrStaleLoad marks a fetch result discarded because the user moved on.
	ErrStaleLoad = errors.New("subject load superseded")
	// ErrCheckInUnavailable is returned on a second check-in within a calendar day.
	ErrCheckInUnavailable = errors.New("already checked in today")

	// ErrInvalidState is the parent of all contract violations below.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyAnswered forbids re-answering within a pass.
	ErrAlreadyAnswered = fmt.Errorf("%w: question already answered", ErrInvalidState)
	// ErrNotAnswered forbids advancing past an unanswered question.
	ErrNotAnswered = fmt.Errorf("%w: current question not answered", ErrInvalidState)
	// ErrQuizComplete is returned for answering or advancing while in review.
	ErrQuizComplete = fmt.Errorf("%w: quiz is in review", ErrInvalidState)
	// ErrNoSession is returned when an action needs a loaded quiz.
	ErrNoSession = fmt.Errorf("%w: no quiz loaded", ErrInvalidState)
	// ErrInvalidTransition is returned for navigation not allowed from the current view.
	ErrInvalidTransition = fmt.Errorf("%w: navigation not allowed", ErrInvalidState)
)

// FetchError wraps a question source failure for a subject.
type FetchError struct {
	Subject string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch questions for %s: %v", e.Subject, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps malformed question data.
type ParseError struct {
	Subject string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("parse questions: %v", e.Err)
	}
	return fmt.Sprintf("parse questions for %s: %v", e.Subject, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
