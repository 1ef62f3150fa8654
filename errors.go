package main

import "errors"

// Store implementations translate driver errors into these so handlers never
// see mongo.ErrNoDocuments or write exceptions directly.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("duplicate: entity already exists")
	ErrConflict  = errors.New("conflict: concurrent modification detected")
)
