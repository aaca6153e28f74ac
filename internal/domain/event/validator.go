package event

const CodeWrongValue = "wrongValue"

// Rejection is a single field-level validation failure.
type Rejection struct {
	Field   string
	Code    string
	Message string
	Value   any
}

// Validate runs the cross-field checks binding tags cannot express.
// An empty result means the input is acceptable.
//
// The price check only applies when maxPrice is non-zero, so a positive
// basePrice with an unlimited (zero) maxPrice is accepted.
func Validate(in EventInput) []Rejection {
	var out []Rejection

	if in.MaxPrice != 0 && in.BasePrice > in.MaxPrice {
		out = append(out,
			Rejection{Field: "basePrice", Code: CodeWrongValue, Message: "basePrice must not exceed maxPrice", Value: in.BasePrice},
			Rejection{Field: "maxPrice", Code: CodeWrongValue, Message: "maxPrice must not be lower than basePrice", Value: in.MaxPrice},
		)
	}

	end := in.EndEventDateTime
	if end.Before(in.BeginEventDateTime) ||
		end.Before(in.CloseEnrollmentDateTime) ||
		end.Before(in.BeginEnrollmentDateTime) {
		out = append(out, Rejection{
			Field:   "endEventDateTime",
			Code:    CodeWrongValue,
			Message: "endEventDateTime must not precede the other event and enrollment times",
			Value:   end,
		})
	}

	return out
}
