// Package lrscheduler provides learning rate schedules that drive any
// optimizer exposing GetLR/SetLR.
//
// A scheduler owns the timeline: each call to Step advances it by one
// tick, writes the new rate into the optimizer and returns it.
package lrscheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidHyperparameter wraps every scheduler validation failure, so
// callers can detect bad configuration with errors.Is.
var ErrInvalidHyperparameter = errors.New("invalid hyperparameter")

// ErrUnknownScheduler is returned by the registry for unregistered names.
var ErrUnknownScheduler = errors.New("unknown lr scheduler")

// Optimizer is the slice of an optimizer a scheduler needs.
type Optimizer interface {
	GetLR() float32
	SetLR(lr float32)
}

// Scheduler advances a learning rate schedule.
type Scheduler interface {
	// Step moves to the next tick, applies the rate to the optimizer and
	// returns it.
	Step() float32
	// GetLR returns the rate most recently applied.
	GetLR() float32
}

func validatePositive(name string, value float32) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s %g must be > 0", ErrInvalidHyperparameter, name, value)
	}
	return nil
}

func validatePositiveInt(name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s %d must be > 0", ErrInvalidHyperparameter, name, value)
	}
	return nil
}

func validateNonNegative(name string, value float32) error {
	if value < 0 {
		return fmt.Errorf("%w: %s %g must be >= 0", ErrInvalidHyperparameter, name, value)
	}
	return nil
}
