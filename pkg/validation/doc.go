// Package validation checks request fields and reports failures in the
// field-error shape the dashboard renders.
//
// Rules are chained on a Validator; every rule runs and each failure becomes
// one FieldError:
//
//	v := validation.NewValidator(validation.LocationBody).
//		NotEmpty("uid", req.UID, "UID is required").
//		Email("email", req.Email, "Must be a valid email address")
//	if !v.Valid() {
//		httputil.WriteValidationErrors(w, v.Errors())
//		return
//	}
//
// The response body is {"errors":[{"type":"field","value":...,"msg":...,
// "path":...,"location":"body"}]}.
package validation
