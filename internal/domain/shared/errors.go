package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indicates a referenced entity does not exist

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError indicates a duplicate unique key or an illegal state transition

type ConflictError struct {
	*DomainError
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{DomainError: &DomainError{Message: message}}
}

// NoResourcesError indicates an optimization cannot start because the filtered
// vehicle or shipment set is empty

type NoResourcesError struct {
	*DomainError
	Resource string
}

func NewNoResourcesError(resource, message string) *NoResourcesError {
	return &NoResourcesError{
		DomainError: &DomainError{Message: message},
		Resource:    resource,
	}
}

// Solver errors

type SolverError struct {
	*DomainError
	Status string
}

func NewSolverError(status, message string) *SolverError {
	return &SolverError{
		DomainError: &DomainError{Message: message},
		Status:      status,
	}
}

type SolverInfeasibleError struct {
	*SolverError
}

func NewSolverInfeasibleError(message string) *SolverInfeasibleError {
	return &SolverInfeasibleError{SolverError: NewSolverError("INFEASIBLE", message)}
}

type SolverTimeoutError struct {
	*SolverError
}

func NewSolverTimeoutError(message string) *SolverTimeoutError {
	return &SolverTimeoutError{SolverError: NewSolverError("TIMEOUT", message)}
}
