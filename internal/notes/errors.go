package notes

import (
	"errors"
	"fmt"
)

// ContractReason identifies which part of a stage's output contract was broken.
type ContractReason string

const (
	ReasonMissingCommit     ContractReason = "missing_commit"
	ReasonUnknownCommit     ContractReason = "unknown_commit"
	ReasonDuplicateCommit   ContractReason = "duplicate_commit"
	ReasonDuplicateInput    ContractReason = "duplicate_input"
	ReasonInvalidType       ContractReason = "invalid_type"
	ReasonEmptyField        ContractReason = "empty_field"
	ReasonVersionMismatch   ContractReason = "version_mismatch"
	ReasonHeading           ContractReason = "heading"
	ReasonMissingSection    ContractReason = "missing_section"
	ReasonUnexpectedSection ContractReason = "unexpected_section"
	ReasonSuggestions       ContractReason = "suggestions"
)

// ContractError describes a collaborator response that parsed against its
// schema but violates the stage's semantic contract.
type ContractError struct {
	Stage  string
	Reason ContractReason
	Detail string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Reason, e.Detail)
}

func contractErr(stage string, reason ContractReason, format string, args ...any) error {
	return &ContractError{Stage: stage, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// distinctInputs rejects a stage input that lists the same commit twice.
func distinctInputs(stage string, shas []string) error {
	seen := make(map[string]struct{}, len(shas))
	for _, sha := range shas {
		if _, dup := seen[sha]; dup {
			return contractErr(stage, ReasonDuplicateInput, "sha %q appears more than once in the input", sha)
		}
		seen[sha] = struct{}{}
	}
	return nil
}

// IsContractError reports whether err is or wraps a ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}
