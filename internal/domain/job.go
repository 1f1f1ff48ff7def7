package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step enumerates the lifecycle states of a JobRecord.
type Step string

const (
	StepCollectingStyles Step = "collecting_styles"
	StepRunning          Step = "running"
	StepCompleted        Step = "completed"
	StepError            Step = "error"
)

// transitions is the only set of valid step edges. Anything else is rejected
// by Transition, including regressions and repeats.
var transitions = map[Step][]Step{
	StepCollectingStyles: {StepRunning, StepCompleted, StepError},
	StepRunning:          {StepCompleted, StepError},
}

// CanTransition reports whether the edge s -> to is allowed.
func (s Step) CanTransition(to Step) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the step admits no further transitions.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepError
}

// JobRecord is one attempted training job. Records are never deleted;
// terminal ones persist as history and feed the daily quota query.
type JobRecord struct {
	ID      uuid.UUID
	ChatID  int64
	JobName string // assigned at launch, empty before

	Step Step

	ContentAsset     string // transient file id on the messaging platform
	ContentMessageID int64
	ContentRequester int64
	CompressResult   bool
	StyleAssets      []string

	// Parameters is the snapshot copied from the chat's defaults at creation
	// time. It never changes afterwards.
	Parameters Parameters

	ResultAsset       string
	ProgressMessageID *int64

	Created       time.Time
	Started       *time.Time
	Completed     *time.Time
	ConsumedUnits *float64
}

// NewJobRecord creates a collecting-styles record for the given content asset,
// snapshotting the chat's current defaults.
func NewJobRecord(chat *Chat, contentAsset string, compress bool, messageID, requesterID int64) *JobRecord {
	return &JobRecord{
		ID:               uuid.New(),
		ChatID:           chat.ID,
		Step:             StepCollectingStyles,
		ContentAsset:     contentAsset,
		ContentMessageID: messageID,
		ContentRequester: requesterID,
		CompressResult:   compress,
		Parameters:       chat.DefaultParameters,
		Created:          time.Now().UTC(),
	}
}

// Transition moves the record to the next step, enforcing the edge table.
func (j *JobRecord) Transition(to Step) error {
	if !j.Step.CanTransition(to) {
		return ErrInvalidTransition
	}
	j.Step = to
	return nil
}

// StylesComplete reports whether the style set reached the snapshot's count.
func (j *JobRecord) StylesComplete() bool {
	return len(j.StyleAssets) >= j.Parameters.StyleCount
}
