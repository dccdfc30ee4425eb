package domain

import "time"

// StageStatus is the progress of one workflow stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageComplete   StageStatus = "complete"
	StageNA         StageStatus = "na"
)

// WorkflowStatus is the derived progress of every stage of an inspection.
type WorkflowStatus struct {
	Technician StageStatus `json:"technician"`
	Labour     StageStatus `json:"labour"`
	Parts      StageStatus `json:"parts"`
	Authorised StageStatus `json:"authorised"`
	Sent       StageStatus `json:"sent"`
}

// WorkflowTimestamps are the inspection timestamps the derivation reads.
type WorkflowTimestamps struct {
	SentAt          *time.Time
	TechStartedAt   *time.Time
	TechCompletedAt *time.Time
}

// TimestampsOf extracts the workflow timestamps of an inspection.
func TimestampsOf(in Inspection) WorkflowTimestamps {
	return WorkflowTimestamps{
		SentAt:          in.SentAt,
		TechStartedAt:   in.TechStartedAt,
		TechCompletedAt: in.TechCompletedAt,
	}
}

// DeriveWorkflow recomputes stage statuses from the current item and timestamp state.
func DeriveWorkflow(r Rollup, ts WorkflowTimestamps) WorkflowStatus {
	ws := WorkflowStatus{
		Technician: StagePending,
		Sent:       StageNA,
	}

	switch {
	case ts.TechCompletedAt != nil:
		ws.Technician = StageComplete
	case ts.TechStartedAt != nil:
		ws.Technician = StageInProgress
	}

	ws.Labour = progressOf(r.NonGroupItems, func(it RepairItem) string { return it.LabourStatus })
	ws.Parts = progressOf(r.NonGroupItems, func(it RepairItem) string { return it.PartsStatus })
	ws.Authorised = authorisationOf(r)

	if ts.SentAt != nil {
		ws.Sent = StageComplete
	}
	return ws
}

func progressOf(items []RepairItem, field func(RepairItem) string) StageStatus {
	if len(items) == 0 {
		return StageNA
	}

	complete, started := 0, 0
	for _, it := range items {
		switch field(it) {
		case ProgressComplete:
			complete++
			started++
		case ProgressInProgress:
			started++
		}
	}

	switch {
	case complete == len(items):
		return StageComplete
	case started > 0:
		return StageInProgress
	default:
		return StagePending
	}
}

// authorisationOf counts a top-level item as authorised by the same rule as the
// financial rollup, so a group authorised through its children is authorised here too.
func authorisationOf(r Rollup) StageStatus {
	considered, authorised := 0, 0
	for _, it := range r.TopLevelItems {
		if it.OutcomeStatus == OutcomeDeleted {
			continue
		}
		considered++
		if it.IsAuthorised() || r.AuthorisedTopLevel[it.ID] {
			authorised++
		}
	}

	switch {
	case considered == 0:
		return StageNA
	case authorised == considered:
		return StageComplete
	case authorised > 0:
		return StageInProgress
	default:
		return StagePending
	}
}
