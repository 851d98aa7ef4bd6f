package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/internal/notes"
)

// Application error types reported by release-note runs. None are retried.
const (
	ErrTypeCollaboratorUnavailable = "CollaboratorUnavailable"
	ErrTypeSchemaMismatch          = "SchemaMismatch"
	ErrTypeContractViolation       = "ContractViolation"
	ErrTypeCollectionFailed        = "CollectionFailed"
	ErrTypeUnreachableGate         = "UnreachableGate"
	ErrTypeInvalidVersion          = "InvalidVersion"
)

var errNoRepository = errors.New("no repository configured and no commits supplied")

// stageError maps a collaborator-stage failure onto its application error type.
func stageError(stage string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	errType := ErrTypeCollaboratorUnavailable
	switch {
	case llm.IsSchemaError(err):
		errType = ErrTypeSchemaMismatch
	case notes.IsContractError(err):
		errType = ErrTypeContractViolation
	}
	return temporal.NewNonRetryableApplicationError(stage+": "+err.Error(), errType, err)
}

func collectionError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return temporal.NewNonRetryableApplicationError("collect commits: "+err.Error(), ErrTypeCollectionFailed, err)
}
