package models

import "errors"

// Errors shared by every store implementation.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidID              = errors.New("invalid id format")
	ErrDuplicateControlNumber = errors.New("control number already assigned")
	ErrDuplicateAdmin         = errors.New("admin user already exists")
	ErrSettingsAlreadyExist   = errors.New("settings already exist")
)
