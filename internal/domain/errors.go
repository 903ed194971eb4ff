package domain

import "errors"

var (
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrSelfBattle         = errors.New("an experiment cannot battle itself")
)
