package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSLASweep = "healthchecks.sla.sweep"

// SLASweepPayload scopes a sweep to one organization; empty sweeps all of them.
type SLASweepPayload struct {
	OrganizationID string `json:"organizationId,omitempty"`
}

func NewSLASweepTask(payload SLASweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSLASweep, data), nil
}

func ParseSLASweepPayload(task *asynq.Task) (SLASweepPayload, error) {
	var payload SLASweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SLASweepPayload{}, err
	}
	return payload, nil
}
