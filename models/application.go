package models

// ApplicationStatus is the persisted vocabulary of the applications table.
// Screens that showed "reviewing" or "interview" were out of step with it.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationReviewed    ApplicationStatus = "reviewed"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewed,
	ApplicationInterviewed,
	ApplicationAccepted,
	ApplicationRejected,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

var InterviewStatuses = []InterviewStatus{
	InterviewScheduled,
	InterviewCompleted,
	InterviewCancelled,
}

func (s InterviewStatus) Valid() bool {
	for _, v := range InterviewStatuses {
		if s == v {
			return true
		}
	}
	return false
}
