package event

import "time"

// NewFromInput maps a validated payload onto a fresh DRAFT event and
// normalizes its derived flags. managerID may be empty for anonymous creates.
func NewFromInput(in EventInput, managerID string) Event {
	now := time.Now().UTC()

	e := Event{
		Name:                    in.Name,
		Description:             in.Description,
		BeginEnrollmentDateTime: in.BeginEnrollmentDateTime,
		CloseEnrollmentDateTime: in.CloseEnrollmentDateTime,
		BeginEventDateTime:      in.BeginEventDateTime,
		EndEventDateTime:        in.EndEventDateTime,
		Location:                in.Location,
		BasePrice:               in.BasePrice,
		MaxPrice:                in.MaxPrice,
		LimitOfEnrollment:       in.LimitOfEnrollment,
		EventStatus:             StatusDraft,
		ManagerID:               managerID,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	e.Normalize()

	return e
}
