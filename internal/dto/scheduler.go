package dto

// SuggestSlotRequest asks the deterministic earliest-fit finder for the
// first free gap of a room's or a section's day.
type SuggestSlotRequest struct {
	TermID          string `json:"termId" validate:"required"`
	Dimension       string `json:"dimension" validate:"required,oneof=room section"`
	RoomID          string `json:"roomId" validate:"required_if=Dimension room"`
	SectionID       string `json:"sectionId" validate:"required_if=Dimension section"`
	Day             string `json:"day" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=15,max=720"`
}

// SuggestSlotResponse carries the suggested interval; Found is false when
// no gap of sufficient length exists, which is an outcome, not an error.
type SuggestSlotResponse struct {
	Found     bool   `json:"found"`
	Day       string `json:"day"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Display   string `json:"display,omitempty"`
}

// SessionProposal is one not-yet-persisted session in a submitted batch.
type SessionProposal struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	SubjectID string `json:"subjectId" validate:"required"`
}

// CommitBatchRequest submits a batch of proposed sessions for a section.
// DryRun validates without persisting.
type CommitBatchRequest struct {
	TermID    string            `json:"termId" validate:"required"`
	SectionID string            `json:"sectionId" validate:"required"`
	Sessions  []SessionProposal `json:"sessions" validate:"required,min=1,dive"`
	DryRun    bool              `json:"dryRun"`
}

// BatchViolation reports the first failed check of a rejected batch.
type BatchViolation struct {
	Code       string `json:"code"`
	Index      int    `json:"index"`
	OtherIndex *int   `json:"otherIndex,omitempty"`
	Message    string `json:"message"`
}

// CommitBatchResponse reports batch acceptance. Acceptance is
// all-or-nothing; Violation is set only on rejection.
type CommitBatchResponse struct {
	Valid     bool            `json:"valid"`
	Committed bool            `json:"committed"`
	Sessions  []SessionView   `json:"sessions,omitempty"`
	Violation *BatchViolation `json:"violation,omitempty"`
}

// AutoScheduleRequest instructs the bulk scheduler to fill a section's
// unscheduled curriculum. Zero values inherit the server defaults.
type AutoScheduleRequest struct {
	TermID             string   `json:"termId" validate:"required"`
	SectionID          string   `json:"sectionId" validate:"required"`
	Days               []string `json:"days" validate:"omitempty,min=1"`
	StepMinutes        int      `json:"stepMinutes" validate:"omitempty,min=15,max=120"`
	AttemptsPerSession int      `json:"attemptsPerSession" validate:"omitempty,min=1,max=10000"`
	Seed               *int64   `json:"seed"`
}

// SubjectOutcome is the per-subject report of one bulk run. FailureReason
// is empty when the subject's full demand was placed.
type SubjectOutcome struct {
	SubjectID        string `json:"subjectId"`
	SubjectCode      string `json:"subjectCode,omitempty"`
	ScheduledBefore  int    `json:"scheduledMinutesBefore"`
	ScheduledAfter   int    `json:"scheduledMinutesAfter"`
	CreatedSessions  int    `json:"createdSessionCount"`
	RemainingMinutes int    `json:"remainingMinutes"`
	FailureReason    string `json:"failureReason,omitempty"`
}

// AutoScheduleResponse returns the proposal set of one bulk run; the
// proposal stays server-side until saved or expired.
type AutoScheduleResponse struct {
	ProposalID string           `json:"proposalId"`
	Sessions   []SessionView    `json:"sessions"`
	Reports    []SubjectOutcome `json:"reports"`
}

// SaveProposalRequest persists a generated proposal as class sessions.
type SaveProposalRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// SessionView is the wire representation of one session, with times in
// both canonical and 12-hour display form.
type SessionView struct {
	ID        string `json:"id,omitempty"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Display   string `json:"display"`
	RoomID    string `json:"roomId"`
	SectionID string `json:"sectionId"`
	SubjectID string `json:"subjectId"`
}

// SubjectDemandView reports duration accounting for one curriculum
// subject; Excess is a display-only badge for over-scheduled subjects.
type SubjectDemandView struct {
	SubjectID        string `json:"subjectId"`
	SubjectCode      string `json:"subjectCode"`
	Units            int    `json:"units"`
	RequiredMinutes  int    `json:"requiredMinutes"`
	ScheduledMinutes int    `json:"scheduledMinutes"`
	RemainingMinutes int    `json:"remainingMinutes"`
	Excess           bool   `json:"excess"`
}
