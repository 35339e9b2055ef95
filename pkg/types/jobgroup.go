package types

import "github.com/cuemby/loadstore/pkg/codec"

// Element names for encoded job groups.
const (
	jobGroupElementName        = "name"
	jobGroupElementDescription = "description"
	jobGroupElementJobs        = "jobs"
)

// JobGroup is a reusable template bundling several pre-configured job
// definitions under one name. The member definitions are stored opaquely
// as encoded payloads; the persistence layer never interprets them.
type JobGroup struct {
	Name        string
	Description string
	JobData     [][]byte
}

// NewJobGroup creates an empty job group.
func NewJobGroup(name string) *JobGroup {
	return &JobGroup{
		Name:    name,
		JobData: [][]byte{},
	}
}

// AddJobData appends a member job definition to the group.
func (g *JobGroup) AddJobData(data []byte) {
	g.JobData = append(g.JobData, data)
}

// Encode serializes the job group as a tagged record.
func (g *JobGroup) Encode() []byte {
	jobs := make([]codec.Element, len(g.JobData))
	for i, data := range g.JobData {
		jobs[i] = codec.Bytes(data)
	}

	return codec.Sequence(
		codec.String(jobGroupElementName),
		codec.String(g.Name),
		codec.String(jobGroupElementDescription),
		codec.String(g.Description),
		codec.String(jobGroupElementJobs),
		codec.Sequence(jobs...),
	).Encode()
}

// DecodeJobGroup parses a tagged record into a job group, member payloads
// included.
func DecodeJobGroup(data []byte) (*JobGroup, error) {
	return decodeJobGroup(data, true)
}

// DecodeJobGroupSummary parses only the group's name and description,
// skipping the member payloads.
func DecodeJobGroupSummary(data []byte) (*JobGroup, error) {
	return decodeJobGroup(data, false)
}

func decodeJobGroup(data []byte, withJobs bool) (*JobGroup, error) {
	const entity = "job group"

	root, err := codec.Decode(data)
	if err != nil {
		return nil, decodeErr(entity, err)
	}
	elements, err := root.AsSequence()
	if err != nil {
		return nil, decodeErr(entity, err)
	}

	g := NewJobGroup("")
	for i := 0; i+1 < len(elements); i += 2 {
		name, err := elements[i].AsString()
		if err != nil {
			return nil, decodeErr(entity, err)
		}
		value := elements[i+1]

		switch name {
		case jobGroupElementName:
			g.Name, err = value.AsString()
		case jobGroupElementDescription:
			g.Description, err = value.AsString()
		case jobGroupElementJobs:
			if !withJobs {
				continue
			}
			var children []codec.Element
			children, err = value.AsSequence()
			if err != nil {
				break
			}
			g.JobData = make([][]byte, len(children))
			for j, child := range children {
				g.JobData[j], err = child.AsBytes()
				if err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, decodeErr(entity, err)
		}
	}
	return g, nil
}
