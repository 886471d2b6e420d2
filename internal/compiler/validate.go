package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/rendezvous/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedIRType = "E200" // unsupported IR type for validation

	// JoinSpec errors (E201-E211)
	ErrJoinNameEmpty       = "E201" // join name is required
	ErrNoSources           = "E202" // at least one source required
	ErrDuplicateSource     = "E203" // source declared twice
	ErrNoPlans             = "E204" // at least one plan required
	ErrDuplicatePlan       = "E205" // plan id used twice
	ErrEmptyPattern        = "E206" // plan pattern has no sources
	ErrUnknownSource       = "E207" // pattern references an undeclared source
	ErrUnknownOp           = "E208" // reaction op not recognised
	ErrFailMessageRequired = "E209" // fail reaction without a message
	ErrPatternDuplicate    = "E210" // pattern names one source twice
	ErrInvalidName         = "E211" // name contains illegal characters

	// Warnings (W200-W299) never make a spec invalid.
	WarnUnusedSource = "W201" // declared source appears in no pattern
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled JoinSpec.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.JoinSpec:
		return validateJoinSpec(spec)
	case ir.JoinSpec:
		return validateJoinSpec(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// Warnings reports problems that do not prevent a join from running.
func Warnings(spec *ir.JoinSpec) []ValidationError {
	used := make(map[string]bool)
	for _, p := range spec.Plans {
		for _, name := range p.Pattern {
			used[name] = true
		}
	}

	var warns []ValidationError
	for i, src := range spec.Sources {
		if !used[src.Name] {
			warns = append(warns, ValidationError{
				Field:   fmt.Sprintf("sources[%d]", i),
				Message: fmt.Sprintf("source %q is not used by any plan", src.Name),
				Code:    WarnUnusedSource,
			})
		}
	}
	return warns
}

func validateJoinSpec(spec *ir.JoinSpec) []ValidationError {
	var errs []ValidationError

	// E201: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "join name is required",
			Code:    ErrJoinNameEmpty,
		})
	} else if !isValidName(spec.Name) {
		errs = append(errs, invalidName("name", spec.Name))
	}

	// E202: at least one source
	if len(spec.Sources) == 0 {
		errs = append(errs, ValidationError{
			Field:   "sources",
			Message: "at least one source is required",
			Code:    ErrNoSources,
		})
	}

	declared := make(map[string]bool)
	for i, src := range spec.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if !isValidName(src.Name) {
			errs = append(errs, invalidName(field, src.Name))
		}
		// E203: duplicate source
		if declared[src.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate source name: %q", src.Name),
				Code:    ErrDuplicateSource,
			})
		}
		declared[src.Name] = true
	}

	// E204: at least one plan
	if len(spec.Plans) == 0 {
		errs = append(errs, ValidationError{
			Field:   "plans",
			Message: "at least one plan is required",
			Code:    ErrNoPlans,
		})
	}

	planIDs := make(map[string]bool)
	for i, plan := range spec.Plans {
		field := fmt.Sprintf("plans[%d]", i)

		if !isValidName(plan.ID) {
			errs = append(errs, invalidName(field+".id", plan.ID))
		}
		// E205: duplicate plan id
		if planIDs[plan.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate plan id: %q", plan.ID),
				Code:    ErrDuplicatePlan,
			})
		}
		planIDs[plan.ID] = true

		errs = append(errs, validatePattern(field+".pattern", plan.Pattern, declared)...)
		errs = append(errs, validateReaction(field+".reaction", plan.Reaction)...)
	}

	return errs
}

func validatePattern(field string, pattern []string, declared map[string]bool) []ValidationError {
	// E206: empty pattern
	if len(pattern) == 0 {
		return []ValidationError{{
			Field:   field,
			Message: "pattern must name at least one source",
			Code:    ErrEmptyPattern,
		}}
	}

	var errs []ValidationError
	seen := make(map[string]bool)
	for j, name := range pattern {
		// E207: undeclared source
		if !declared[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, j),
				Message: fmt.Sprintf("unknown source %q", name),
				Code:    ErrUnknownSource,
			})
		}
		// E210: a source may appear once per pattern
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, j),
				Message: fmt.Sprintf("source %q appears more than once", name),
				Code:    ErrPatternDuplicate,
			})
		}
		seen[name] = true
	}
	return errs
}

func validateReaction(field string, r ir.ReactionDecl) []ValidationError {
	// E208: op must be known
	if !ir.ValidOps[r.Op] {
		return []ValidationError{{
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown op %q", r.Op),
			Code:    ErrUnknownOp,
		}}
	}
	// E209: fail needs a message
	if r.Op == ir.OpFail && strings.TrimSpace(r.Message) == "" {
		return []ValidationError{{
			Field:   field + ".message",
			Message: "fail reaction requires a message",
			Code:    ErrFailMessageRequired,
		}}
	}
	return nil
}

// namePattern matches source, plan and join names: a letter or underscore
// followed by letters, digits, underscores or dashes.
var namePattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_-]*$`)

func isValidName(name string) bool {
	return namePattern.MatchString(name)
}

// E211: illegal name
func invalidName(field, name string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid name %q", name),
		Code:    ErrInvalidName,
	}
}
