package common

import "errors"

// Error codes from spec.md §6. These are the surface contract handed to
// callers above the storage core (a catalog facade, an executor); the core
// itself mostly returns these wrapped with context via fmt.Errorf's %w.
var (
	ErrFailed            = errors.New("DB_FAILED")
	ErrTableAlreadyExist = errors.New("DB_TABLE_ALREADY_EXIST")
	ErrTableNotExist     = errors.New("DB_TABLE_NOT_EXIST")
	ErrIndexAlreadyExist = errors.New("DB_INDEX_ALREADY_EXIST")
	ErrIndexNotFound     = errors.New("DB_INDEX_NOT_FOUND")
	ErrColumnNameNotExist = errors.New("DB_COLUMN_NAME_NOT_EXIST")
)
