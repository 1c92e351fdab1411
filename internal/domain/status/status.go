// Package status carries the address-space core's error taxonomy (spec
// §7): one sentinel error and one numeric Code per distinct
// service-visible outcome, so the service layer can return a stable code
// (§6 "per-item result") without string-matching error text.
package status

import "errors"

// Code is a stable numeric identifier for an outcome, independent of the
// associated error's message text. The zero value is CodeGood.
type Code uint16

const (
	CodeGood Code = iota
	CodeOutOfMemory
	CodeNodeIdInvalid
	CodeNodeIdExists
	CodeNodeIdUnknown
	CodeParentNodeIdInvalid
	CodeReferenceTypeIdInvalid
	CodeReferenceNotAllowed
	CodeTypeDefinitionInvalid
	CodeTypeMismatch
	CodeNodeAttributesInvalid
	CodeNodeClassInvalid
	CodeUncertainReferenceNotDeleted
	CodeNotImplemented
	CodeBadDuplicateReferenceNotAllowed
	CodeInternalError
	CodeNothingToDo
)

func (c Code) String() string {
	switch c {
	case CodeGood:
		return "Good"
	case CodeOutOfMemory:
		return "BadOutOfMemory"
	case CodeNodeIdInvalid:
		return "BadNodeIdInvalid"
	case CodeNodeIdExists:
		return "BadNodeIdExists"
	case CodeNodeIdUnknown:
		return "BadNodeIdUnknown"
	case CodeParentNodeIdInvalid:
		return "BadParentNodeIdInvalid"
	case CodeReferenceTypeIdInvalid:
		return "BadReferenceTypeIdInvalid"
	case CodeReferenceNotAllowed:
		return "BadReferenceNotAllowed"
	case CodeTypeDefinitionInvalid:
		return "BadTypeDefinitionInvalid"
	case CodeTypeMismatch:
		return "BadTypeMismatch"
	case CodeNodeAttributesInvalid:
		return "BadNodeAttributesInvalid"
	case CodeNodeClassInvalid:
		return "BadNodeClassInvalid"
	case CodeUncertainReferenceNotDeleted:
		return "UncertainReferenceNotDeleted"
	case CodeNotImplemented:
		return "BadNotImplemented"
	case CodeBadDuplicateReferenceNotAllowed:
		return "BadDuplicateReferenceNotAllowed"
	case CodeInternalError:
		return "BadInternalError"
	case CodeNothingToDo:
		return "BadNothingToDo"
	default:
		return "BadUnknown"
	}
}

// Sentinel errors, one per Code above CodeGood. Compare with errors.Is;
// wrap with call-site context via fmt.Errorf("...: %w", err).
var (
	ErrOutOfMemory                     = errors.New("out of memory")
	ErrNodeIdInvalid                   = errors.New("node id invalid")
	ErrNodeIdExists                    = errors.New("node id exists")
	ErrNodeIdUnknown                   = errors.New("node id unknown")
	ErrParentNodeIdInvalid             = errors.New("parent node id invalid")
	ErrReferenceTypeIdInvalid          = errors.New("reference type id invalid")
	ErrReferenceNotAllowed             = errors.New("reference not allowed")
	ErrTypeDefinitionInvalid           = errors.New("type definition invalid")
	ErrTypeMismatch                    = errors.New("type mismatch")
	ErrNodeAttributesInvalid           = errors.New("node attributes invalid")
	ErrNodeClassInvalid                = errors.New("node class invalid")
	ErrUncertainReferenceNotDeleted    = errors.New("uncertain reference not deleted")
	ErrNotImplemented                  = errors.New("not implemented")
	ErrBadDuplicateReferenceNotAllowed = errors.New("duplicate reference not allowed")
	ErrInternalError                   = errors.New("internal error")
	ErrNothingToDo                     = errors.New("nothing to do")
)

var codeByErr = map[error]Code{
	ErrOutOfMemory:                     CodeOutOfMemory,
	ErrNodeIdInvalid:                   CodeNodeIdInvalid,
	ErrNodeIdExists:                    CodeNodeIdExists,
	ErrNodeIdUnknown:                   CodeNodeIdUnknown,
	ErrParentNodeIdInvalid:             CodeParentNodeIdInvalid,
	ErrReferenceTypeIdInvalid:          CodeReferenceTypeIdInvalid,
	ErrReferenceNotAllowed:             CodeReferenceNotAllowed,
	ErrTypeDefinitionInvalid:           CodeTypeDefinitionInvalid,
	ErrTypeMismatch:                    CodeTypeMismatch,
	ErrNodeAttributesInvalid:           CodeNodeAttributesInvalid,
	ErrNodeClassInvalid:                CodeNodeClassInvalid,
	ErrUncertainReferenceNotDeleted:    CodeUncertainReferenceNotDeleted,
	ErrNotImplemented:                  CodeNotImplemented,
	ErrBadDuplicateReferenceNotAllowed: CodeBadDuplicateReferenceNotAllowed,
	ErrInternalError:                   CodeInternalError,
	ErrNothingToDo:                     CodeNothingToDo,
}

// FromError maps err to its Code by walking its Unwrap chain against the
// sentinels above. A nil or unrecognized error maps to CodeGood /
// CodeInternalError respectively.
func FromError(err error) Code {
	if err == nil {
		return CodeGood
	}
	for sentinel, code := range codeByErr {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternalError
}
