package optimizer

import (
	"errors"
	"fmt"
)

// ErrInvalidHyperparameter wraps every hyperparameter validation failure,
// so callers can detect bad configuration with errors.Is.
var ErrInvalidHyperparameter = errors.New("invalid hyperparameter")

// ErrUnknownOptimizer is returned by the registry for unregistered names.
var ErrUnknownOptimizer = errors.New("unknown optimizer")

func validateLR(lr float32) error {
	if lr < 0 {
		return fmt.Errorf("%w: learning rate %g < 0", ErrInvalidHyperparameter, lr)
	}
	return nil
}

func validateEps(eps float32) error {
	if eps < 0 {
		return fmt.Errorf("%w: epsilon %g < 0", ErrInvalidHyperparameter, eps)
	}
	return nil
}

func validateWeightDecay(wd float32) error {
	if wd < 0 {
		return fmt.Errorf("%w: weight decay %g < 0", ErrInvalidHyperparameter, wd)
	}
	return nil
}

func validateBetas(betas [2]float32) error {
	for i, b := range betas {
		if b < 0 || b >= 1 {
			return fmt.Errorf("%w: beta%d %g outside [0, 1)", ErrInvalidHyperparameter, i+1, b)
		}
	}
	return nil
}

// validateRange checks low <= value <= high.
func validateRange(name string, value, low, high float32) error {
	if value < low || value > high {
		return fmt.Errorf("%w: %s %g outside [%g, %g]", ErrInvalidHyperparameter, name, value, low, high)
	}
	return nil
}

func validatePositive(name string, value float32) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s %g must be > 0", ErrInvalidHyperparameter, name, value)
	}
	return nil
}

// validateCommon covers the lr/eps/weight-decay triple every optimizer shares.
func validateCommon(lr, eps, weightDecay float32) error {
	if err := validateLR(lr); err != nil {
		return err
	}
	if err := validateEps(eps); err != nil {
		return err
	}
	return validateWeightDecay(weightDecay)
}
