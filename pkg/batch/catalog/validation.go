package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var catalogNamePattern = regexp.MustCompile(`^[^\s:/\\]+$`)

// Violation is one reason a resource is invalid.
type Violation struct {
	Resource string
	Field    string
	Rule     string
	Message  string
}

func (v *Violation) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Resource, v.Message)
	}
	return fmt.Sprintf("%s: %s %s", v.Resource, v.Field, v.Message)
}

// ValidationResult is the structured outcome of validating one resource.
type ValidationResult struct {
	Resource   Info
	Violations []*Violation
}

// IsValid reports whether no violation was found.
func (r *ValidationResult) IsValid() bool {
	return r == nil || len(r.Violations) == 0
}

// FirstViolation returns the first violation as an error, or nil.
func (r *ValidationResult) FirstViolation() error {
	if r.IsValid() {
		return nil
	}
	return r.Violations[0]
}

// Err aggregates every violation, or returns nil.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	var merr *multierror.Error
	for _, v := range r.Violations {
		merr = multierror.Append(merr, v)
	}
	return merr.ErrorOrNil()
}

func (r *ValidationResult) add(field, rule, format string, args ...interface{}) {
	r.Violations = append(r.Violations, &Violation{
		Resource: fmt.Sprint(r.Resource),
		Field:    field,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validator checks resources against struct rules and against the catalog they
// are validated for (references resolve, names are unique for new resources).
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator. It is safe for concurrent use.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("catalogname", func(fl validator.FieldLevel) bool {
		return catalogNamePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate validates info against cat. isNew means info is about to be added
// to cat, so a resource with the same identity must not exist yet.
func (v *Validator) Validate(cat Catalog, info Info, isNew bool) *ValidationResult {
	result := &ValidationResult{Resource: info}

	if err := v.validate.Struct(info); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.add(fe.Namespace(), fe.Tag(), "failed on the '%s' rule", fe.Tag())
			}
		} else {
			result.add("", "struct", "%v", err)
		}
	}

	switch r := info.(type) {
	case *WorkspaceInfo:
		if isNew && cat.GetWorkspaceByName(r.Name) != nil {
			result.add("Name", "unique", "workspace '%s' already exists", r.Name)
		}
	case *StoreInfo:
		if r.Workspace != nil && cat.GetWorkspaceByName(r.Workspace.Name) == nil {
			result.add("Workspace", "exists", "workspace '%s' does not exist", r.Workspace.Name)
		}
		if isNew && r.Workspace != nil && cat.GetStoreByName(r.Workspace.Name, r.Name) != nil {
			result.add("Name", "unique", "store '%s' already exists", r.Identity())
		}
	case *LayerInfo:
		ws := r.Workspace()
		if r.Store != nil && ws != nil && cat.GetStoreByName(ws.Name, r.Store.Name) == nil {
			result.add("Store", "exists", "store '%s' does not exist", r.Store.Identity())
		}
		if isNew && ws != nil && cat.GetLayerByName(ws.Name, r.Name) != nil {
			result.add("Name", "unique", "layer '%s' already exists", r.Identity())
		}
	}
	return result
}
