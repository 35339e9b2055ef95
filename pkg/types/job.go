package types

import (
	"time"

	"github.com/cuemby/loadstore/pkg/codec"
	"github.com/google/uuid"
)

// JobState tracks a job through its lifecycle. The numeric values are part
// of the stored format and must not be renumbered.
type JobState int

const (
	JobStateUnknown               JobState = 0
	JobStateNoSuchJob             JobState = 1
	JobStateUninitialized         JobState = 2
	JobStateNotYetStarted         JobState = 3
	JobStateRunning               JobState = 4
	JobStateCompletedSuccessfully JobState = 5
	JobStateCompletedWithErrors   JobState = 6
	JobStateStoppedDueToError     JobState = 7
	JobStateStoppedDueToDuration  JobState = 8
	JobStateStoppedDueToStopTime  JobState = 9
	JobStateStoppedByUser         JobState = 10
	JobStateStoppedByShutdown     JobState = 11
	JobStateCancelled             JobState = 12
	JobStateDisabled              JobState = 13
)

// Done reports whether the state is terminal: the job has finished, been
// stopped, or been cancelled and will not run again.
func (s JobState) Done() bool {
	switch s {
	case JobStateCompletedSuccessfully, JobStateCompletedWithErrors,
		JobStateStoppedDueToError, JobStateStoppedDueToDuration,
		JobStateStoppedDueToStopTime, JobStateStoppedByUser,
		JobStateStoppedByShutdown, JobStateCancelled:
		return true
	}
	return false
}

// String returns a short human-readable label for the state.
func (s JobState) String() string {
	switch s {
	case JobStateNoSuchJob:
		return "no such job"
	case JobStateUninitialized:
		return "uninitialized"
	case JobStateNotYetStarted:
		return "not yet started"
	case JobStateRunning:
		return "running"
	case JobStateCompletedSuccessfully:
		return "completed successfully"
	case JobStateCompletedWithErrors:
		return "completed with errors"
	case JobStateStoppedDueToError:
		return "stopped due to error"
	case JobStateStoppedDueToDuration:
		return "stopped due to duration"
	case JobStateStoppedDueToStopTime:
		return "stopped due to stop time"
	case JobStateStoppedByUser:
		return "stopped by user"
	case JobStateStoppedByShutdown:
		return "stopped by shutdown"
	case JobStateCancelled:
		return "cancelled"
	case JobStateDisabled:
		return "disabled"
	}
	return "unknown"
}

// Element names for encoded jobs.
const (
	jobElementID                 = "job_id"
	jobElementClass              = "job_class"
	jobElementOptimizingJobID    = "optimizing_job_id"
	jobElementGroup              = "job_group"
	jobElementFolder             = "folder"
	jobElementState              = "job_state"
	jobElementDisplayInReadOnly  = "display_in_read_only"
	jobElementDescription        = "description"
	jobElementStartTime          = "start_time"
	jobElementStopTime           = "stop_time"
	jobElementDuration           = "duration"
	jobElementNumClients         = "num_clients"
	jobElementThreadsPerClient   = "threads_per_client"
	jobElementThreadStartupDelay = "thread_startup_delay"
	jobElementCollectionInterval = "collection_interval"
	jobElementDependencies       = "dependencies"
	jobElementNotifyAddresses    = "notify_addresses"
	jobElementComments           = "comments"
	jobElementParameters         = "parameters"
	jobElementActualStartTime    = "actual_start_time"
	jobElementActualStopTime     = "actual_stop_time"
	jobElementActualDuration     = "actual_duration"
	jobElementStatData           = "stats"
	jobElementLogMessages        = "log_messages"
)

// Job is a single scheduled unit of load-generating work. Numeric fields
// use -1 to mean "not set"; the scheduled start time is the only field a
// stored record is required to carry.
type Job struct {
	JobID             string
	JobClass          string
	OptimizingJobID   string
	JobGroup          string
	FolderName        string
	State             JobState
	DisplayInReadOnly bool
	Description       string

	StartTime          time.Time
	StopTime           time.Time
	Duration           int
	NumClients         int
	ThreadsPerClient   int
	ThreadStartupDelay int
	CollectionInterval int

	Dependencies    []string
	NotifyAddresses []string
	Comments        string
	Parameters      []Parameter

	ActualStartTime time.Time
	ActualStopTime  time.Time
	ActualDuration  int

	// StatData is the job's collected statistics in their serialized
	// form; the persistence layer stores it opaquely.
	StatData    []byte
	LogMessages []string
}

// NewJob creates a job with a generated ID, scheduled to start now, in the
// uninitialized state.
func NewJob(jobClass string) *Job {
	return &Job{
		JobID:              uuid.New().String(),
		JobClass:           jobClass,
		FolderName:         FolderNameUnclassified,
		State:              JobStateUninitialized,
		StartTime:          time.Now().UTC().Truncate(time.Second),
		Duration:           -1,
		NumClients:         -1,
		ThreadsPerClient:   -1,
		ThreadStartupDelay: -1,
		CollectionInterval: -1,
		ActualDuration:     -1,
		Dependencies:       []string{},
		NotifyAddresses:    []string{},
		Parameters:         []Parameter{},
		LogMessages:        []string{},
	}
}

// Encode serializes the job as a tagged record.
func (j *Job) Encode() []byte {
	return codec.Sequence(
		codec.String(jobElementID),
		codec.String(j.JobID),
		codec.String(jobElementClass),
		codec.String(j.JobClass),
		codec.String(jobElementOptimizingJobID),
		codec.String(j.OptimizingJobID),
		codec.String(jobElementGroup),
		codec.String(j.JobGroup),
		codec.String(jobElementFolder),
		codec.String(j.FolderName),
		codec.String(jobElementState),
		intElement(int(j.State)),
		codec.String(jobElementDisplayInReadOnly),
		codec.Bool(j.DisplayInReadOnly),
		codec.String(jobElementDescription),
		codec.String(j.Description),
		codec.String(jobElementStartTime),
		timeElement(j.StartTime),
		codec.String(jobElementStopTime),
		timeElement(j.StopTime),
		codec.String(jobElementDuration),
		intElement(j.Duration),
		codec.String(jobElementNumClients),
		intElement(j.NumClients),
		codec.String(jobElementThreadsPerClient),
		intElement(j.ThreadsPerClient),
		codec.String(jobElementThreadStartupDelay),
		intElement(j.ThreadStartupDelay),
		codec.String(jobElementCollectionInterval),
		intElement(j.CollectionInterval),
		codec.String(jobElementDependencies),
		codec.Strings(orEmpty(j.Dependencies)),
		codec.String(jobElementNotifyAddresses),
		codec.Strings(orEmpty(j.NotifyAddresses)),
		codec.String(jobElementComments),
		codec.String(j.Comments),
		codec.String(jobElementParameters),
		encodeParameters(j.Parameters),
		codec.String(jobElementActualStartTime),
		timeElement(j.ActualStartTime),
		codec.String(jobElementActualStopTime),
		timeElement(j.ActualStopTime),
		codec.String(jobElementActualDuration),
		intElement(j.ActualDuration),
		codec.String(jobElementStatData),
		codec.Bytes(j.StatData),
		codec.String(jobElementLogMessages),
		codec.Strings(orEmpty(j.LogMessages)),
	).Encode()
}

// DecodeJob parses a tagged record into a job. Unknown element names are
// skipped; absent numeric fields default to -1. A record without a
// scheduled start time is rejected.
func DecodeJob(data []byte) (*Job, error) {
	return decodeJob(data, true)
}

// DecodeJobSummary parses only the fields needed for listings, skipping
// the statistics payload, log messages, and parameters.
func DecodeJobSummary(data []byte) (*Job, error) {
	return decodeJob(data, false)
}

func decodeJob(data []byte, full bool) (*Job, error) {
	const entity = "job"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	j := &Job{
		Duration:           -1,
		NumClients:         -1,
		ThreadsPerClient:   -1,
		ThreadStartupDelay: -1,
		CollectionInterval: -1,
		ActualDuration:     -1,
		Dependencies:       []string{},
		NotifyAddresses:    []string{},
		Parameters:         []Parameter{},
		LogMessages:        []string{},
	}

	sawStartTime := false
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case jobElementID:
			j.JobID, err = value.AsString()
		case jobElementClass:
			j.JobClass, err = value.AsString()
		case jobElementOptimizingJobID:
			j.OptimizingJobID, err = value.AsString()
		case jobElementGroup:
			j.JobGroup, err = value.AsString()
		case jobElementFolder:
			j.FolderName, err = value.AsString()
		case jobElementState:
			var state int
			state, err = decodeInt(value)
			j.State = JobState(state)
		case jobElementDisplayInReadOnly:
			j.DisplayInReadOnly, err = value.AsBool()
		case jobElementDescription:
			j.Description, err = value.AsString()
		case jobElementStartTime:
			j.StartTime, err = decodeTime(value)
			sawStartTime = err == nil
		case jobElementStopTime:
			j.StopTime, err = decodeTime(value)
		case jobElementDuration:
			j.Duration, err = decodeInt(value)
		case jobElementNumClients:
			j.NumClients, err = decodeInt(value)
		case jobElementThreadsPerClient:
			j.ThreadsPerClient, err = decodeInt(value)
		case jobElementThreadStartupDelay:
			j.ThreadStartupDelay, err = decodeInt(value)
		case jobElementCollectionInterval:
			j.CollectionInterval, err = decodeInt(value)
		case jobElementDependencies:
			j.Dependencies, err = value.AsStringSlice()
		case jobElementNotifyAddresses:
			j.NotifyAddresses, err = value.AsStringSlice()
		case jobElementComments:
			j.Comments, err = value.AsString()
		case jobElementParameters:
			if full {
				j.Parameters, err = decodeParameters(value)
			}
		case jobElementActualStartTime:
			j.ActualStartTime, err = decodeTime(value)
		case jobElementActualStopTime:
			j.ActualStopTime, err = decodeTime(value)
		case jobElementActualDuration:
			j.ActualDuration, err = decodeInt(value)
		case jobElementStatData:
			if full {
				j.StatData, err = value.AsBytes()
			}
		case jobElementLogMessages:
			if full {
				j.LogMessages, err = value.AsStringSlice()
			}
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}

	if !sawStartTime {
		return nil, decodeErrf(entity, "record has no scheduled start time")
	}
	return j, nil
}
