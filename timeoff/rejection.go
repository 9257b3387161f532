package timeoff

// Category separates malformed input from a rule saying no. Callers see both
// the same way; the distinction exists for logs and metrics.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryPolicy     Category = "policy"
)

// Code is the stable machine name of a rejection reason.
type Code string

const (
	CodeMissingFields       Code = "missing_fields"
	CodeEndNotAfterStart    Code = "end_not_after_start"
	CodeEmployeeNotFound    Code = "employee_not_found"
	CodeUnsupportedKind     Code = "unsupported_kind"
	CodeLeadTime            Code = "lead_time"
	CodeSummerCap           Code = "summer_cap"
	CodeInsufficientBalance Code = "insufficient_balance"
)

// Rejection is one reason a draft was refused. It is an error so callers can
// match the underlying generic sentinel with errors.Is.
type Rejection struct {
	Code     Code
	Category Category
	Message  string
	Err      error
}

func (r *Rejection) Error() string { return r.Message }
func (r *Rejection) Unwrap() error { return r.Err }

func invalid(code Code, msg string, err error) *Rejection {
	return &Rejection{Code: code, Category: CategoryValidation, Message: msg, Err: err}
}

func refused(code Code, msg string, err error) *Rejection {
	return &Rejection{Code: code, Category: CategoryPolicy, Message: msg, Err: err}
}
