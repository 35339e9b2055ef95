package types

import (
	"time"

	"github.com/cuemby/loadstore/pkg/codec"
	"github.com/google/uuid"
)

// Element names for encoded optimizing jobs.
const (
	optElementID                     = "optimizing_job_id"
	optElementIterationIDs           = "iteration_ids"
	optElementRerunID                = "rerun_id"
	optElementClass                  = "job_class"
	optElementFolder                 = "folder_name"
	optElementState                  = "job_state"
	optElementDescription            = "description"
	optElementMinThreads             = "min_threads"
	optElementMaxThreads             = "max_threads"
	optElementThreadIncrement        = "thread_increment"
	optElementMaxNonImproving        = "max_nonimproving"
	optElementRerunBestIteration     = "rerun_best_iteration"
	optElementRerunDuration          = "rerun_duration"
	optElementAlgorithm              = "optimization_algorithm"
	optElementParameters             = "parameters"
	optElementNumClients             = "num_clients"
	optElementStartTime              = "start_time"
	optElementDuration               = "duration"
	optElementDelayBetweenIterations = "delay_between_iterations"
	optElementCollectionInterval     = "collection_interval"
)

// OptimizingJob is a series of job iterations that varies the thread count
// between runs, looking for the configuration that maximizes a metric
// chosen by the optimization algorithm. The iterations themselves are
// ordinary jobs referenced by ID.
type OptimizingJob struct {
	OptimizingJobID string
	IterationIDs    []string
	RerunID         string
	JobClass        string
	FolderName      string
	State           JobState
	Description     string

	MinThreads         int
	MaxThreads         int
	ThreadIncrement    int
	MaxNonImproving    int
	RerunBestIteration bool
	RerunDuration      int

	OptimizationAlgorithm string
	Parameters            []Parameter

	NumClients             int
	StartTime              time.Time
	Duration               int
	DelayBetweenIterations int
	CollectionInterval     int
}

// NewOptimizingJob creates an optimizing job with a generated ID in the
// uninitialized state.
func NewOptimizingJob(jobClass, algorithm string) *OptimizingJob {
	return &OptimizingJob{
		OptimizingJobID:        uuid.New().String(),
		IterationIDs:           []string{},
		JobClass:               jobClass,
		FolderName:             FolderNameUnclassified,
		State:                  JobStateUninitialized,
		MinThreads:             1,
		MaxThreads:             -1,
		ThreadIncrement:        1,
		MaxNonImproving:        1,
		RerunDuration:          -1,
		OptimizationAlgorithm:  algorithm,
		Parameters:             []Parameter{},
		NumClients:             -1,
		StartTime:              time.Now().UTC().Truncate(time.Second),
		Duration:               -1,
		DelayBetweenIterations: 0,
		CollectionInterval:     -1,
	}
}

// AddIterationID appends a completed iteration. Iterations run in order,
// so the list keeps insertion order rather than being sorted.
func (o *OptimizingJob) AddIterationID(jobID string) {
	if containsString(o.IterationIDs, jobID) {
		return
	}
	o.IterationIDs = append(o.IterationIDs, jobID)
}

// Encode serializes the optimizing job as a tagged record.
func (o *OptimizingJob) Encode() []byte {
	return codec.Sequence(
		codec.String(optElementID),
		codec.String(o.OptimizingJobID),
		codec.String(optElementIterationIDs),
		codec.Strings(orEmpty(o.IterationIDs)),
		codec.String(optElementRerunID),
		codec.String(o.RerunID),
		codec.String(optElementClass),
		codec.String(o.JobClass),
		codec.String(optElementFolder),
		codec.String(o.FolderName),
		codec.String(optElementState),
		intElement(int(o.State)),
		codec.String(optElementDescription),
		codec.String(o.Description),
		codec.String(optElementMinThreads),
		intElement(o.MinThreads),
		codec.String(optElementMaxThreads),
		intElement(o.MaxThreads),
		codec.String(optElementThreadIncrement),
		intElement(o.ThreadIncrement),
		codec.String(optElementMaxNonImproving),
		intElement(o.MaxNonImproving),
		codec.String(optElementRerunBestIteration),
		codec.Bool(o.RerunBestIteration),
		codec.String(optElementRerunDuration),
		intElement(o.RerunDuration),
		codec.String(optElementAlgorithm),
		codec.String(o.OptimizationAlgorithm),
		codec.String(optElementParameters),
		encodeParameters(o.Parameters),
		codec.String(optElementNumClients),
		intElement(o.NumClients),
		codec.String(optElementStartTime),
		timeElement(o.StartTime),
		codec.String(optElementDuration),
		intElement(o.Duration),
		codec.String(optElementDelayBetweenIterations),
		intElement(o.DelayBetweenIterations),
		codec.String(optElementCollectionInterval),
		intElement(o.CollectionInterval),
	).Encode()
}

// DecodeOptimizingJob parses a tagged record into an optimizing job.
// Unknown element names are skipped; absent numeric fields default to -1.
func DecodeOptimizingJob(data []byte) (*OptimizingJob, error) {
	const entity = "optimizing job"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	o := &OptimizingJob{
		IterationIDs:       []string{},
		MinThreads:         -1,
		MaxThreads:         -1,
		ThreadIncrement:    -1,
		MaxNonImproving:    -1,
		RerunDuration:      -1,
		Parameters:         []Parameter{},
		NumClients:         -1,
		Duration:           -1,
		CollectionInterval: -1,
	}

	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case optElementID:
			o.OptimizingJobID, err = value.AsString()
		case optElementIterationIDs:
			o.IterationIDs, err = value.AsStringSlice()
		case optElementRerunID:
			o.RerunID, err = value.AsString()
		case optElementClass:
			o.JobClass, err = value.AsString()
		case optElementFolder:
			o.FolderName, err = value.AsString()
		case optElementState:
			var state int
			state, err = decodeInt(value)
			o.State = JobState(state)
		case optElementDescription:
			o.Description, err = value.AsString()
		case optElementMinThreads:
			o.MinThreads, err = decodeInt(value)
		case optElementMaxThreads:
			o.MaxThreads, err = decodeInt(value)
		case optElementThreadIncrement:
			o.ThreadIncrement, err = decodeInt(value)
		case optElementMaxNonImproving:
			o.MaxNonImproving, err = decodeInt(value)
		case optElementRerunBestIteration:
			o.RerunBestIteration, err = value.AsBool()
		case optElementRerunDuration:
			o.RerunDuration, err = decodeInt(value)
		case optElementAlgorithm:
			o.OptimizationAlgorithm, err = value.AsString()
		case optElementParameters:
			o.Parameters, err = decodeParameters(value)
		case optElementNumClients:
			o.NumClients, err = decodeInt(value)
		case optElementStartTime:
			o.StartTime, err = decodeTime(value)
		case optElementDuration:
			o.Duration, err = decodeInt(value)
		case optElementDelayBetweenIterations:
			o.DelayBetweenIterations, err = decodeInt(value)
		case optElementCollectionInterval:
			o.CollectionInterval, err = decodeInt(value)
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return o, nil
}
