package model

import "fmt"

// FieldError represents an input field that fails validation
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid field %s: %s (value=%v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Message)
}

// NewFieldError creates a new field error
func NewFieldError(field string, value interface{}, message string) *FieldError {
	return &FieldError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// EnvelopeError represents a malformed authorization envelope
type EnvelopeError struct {
	Message string
	Cause   error
}

func (e *EnvelopeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed authorization envelope: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed authorization envelope: %s", e.Message)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Cause
}

// NewEnvelopeError creates a new envelope error
func NewEnvelopeError(message string, cause error) *EnvelopeError {
	return &EnvelopeError{Message: message, Cause: cause}
}

// ComprobanteError represents a malformed inner comprobante document
type ComprobanteError struct {
	Message string
	Cause   error
}

func (e *ComprobanteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed comprobante: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed comprobante: %s", e.Message)
}

func (e *ComprobanteError) Unwrap() error {
	return e.Cause
}

// NewComprobanteError creates a new comprobante error
func NewComprobanteError(message string, cause error) *ComprobanteError {
	return &ComprobanteError{Message: message, Cause: cause}
}

// IncompleteError represents a comprobante missing a required block
type IncompleteError struct {
	Block   string
	Message string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete comprobante [%s]: %s", e.Block, e.Message)
}

// NewIncompleteError creates a new incomplete-document error
func NewIncompleteError(block, message string) *IncompleteError {
	return &IncompleteError{Block: block, Message: message}
}

// KeyIntegrityError indicates a stored access key that no longer passes
// its checksum. Re-minting would change the legal document identity, so
// the operation that detects it must fail instead.
type KeyIntegrityError struct {
	ClaveAcceso string
}

func (e *KeyIntegrityError) Error() string {
	return fmt.Sprintf("stored access key failed checksum validation: %s", e.ClaveAcceso)
}

// NewKeyIntegrityError creates a new key integrity error
func NewKeyIntegrityError(clave string) *KeyIntegrityError {
	return &KeyIntegrityError{ClaveAcceso: clave}
}
