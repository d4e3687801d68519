package core

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type Status int
type Counts map[string]uint32

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	READY     Status = iota // Accepted and not yet processed. All the jobs start in this status.
	RUNNING                 // Being amplified on a backend.
	SUCCEEDED               // Finished successfully.
	FAILED                  // Finished with failure.
	CANCELLED               // Stopped between rounds before the planned round count.
)

func (s Status) String() string {
	switch s {
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

func ToStatus(s string) (Status, error) {
	switch s {
	case "ready":
		return READY, nil
	case "running":
		return RUNNING, nil
	case "succeeded":
		return SUCCEEDED, nil
	case "failed":
		return FAILED, nil
	case "cancelled":
		return CANCELLED, nil
	default:
		return 0, fmt.Errorf("unknown status: %s", s)
	}
}

func (c Counts) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.Counts")
		return ""
	}
	return string(st)
}

// Oracle modes accepted in SearchParams.Mode.
const (
	TargetModeName    = "target"
	CandidateModeName = "candidate"
)

// SearchParams describes one amplitude-amplification search.
// Iterations == 0 means the optimal round count is derived from the marked-set size.
type SearchParams struct {
	Qubits     int            `json:"qubits" toml:"qubits"`
	Targets    []int          `json:"targets" toml:"targets"`
	Mode       string         `json:"mode" toml:"mode"`
	Iterations int            `json:"iterations" toml:"iterations"`
	Seed       int64          `json:"seed" toml:"seed"`
	Labels     map[string]int `json:"labels,omitempty" toml:"labels"`
	Prefilter  *PrefilterSpec `json:"prefilter,omitempty" toml:"prefilter"`
}

// PrefilterSpec is the serializable form of a prefilter constraint. Every field is optional;
// the set fields are combined by conjunction.
type PrefilterSpec struct {
	HammingWeight *int             `json:"hamming_weight,omitempty" toml:"hamming_weight"`
	MinWeight     *int             `json:"min_weight,omitempty" toml:"min_weight"`
	MaxWeight     *int             `json:"max_weight,omitempty" toml:"max_weight"`
	FixedBits     []FixedBitSpec   `json:"fixed_bits,omitempty" toml:"fixed_bits"`
	MaskWeights   []MaskWeightSpec `json:"mask_weights,omitempty" toml:"mask_weights"`
	NearTargets   *NearTargetsSpec `json:"near_targets,omitempty" toml:"near_targets"`
	RowSymmetry   *RowSymmetrySpec `json:"row_symmetry,omitempty" toml:"row_symmetry"`
	MaxCandidates int              `json:"max_candidates,omitempty" toml:"max_candidates"`
}

type FixedBitSpec struct {
	Position int `json:"position" toml:"position"`
	Value    int `json:"value" toml:"value"`
}

type MaskWeightSpec struct {
	Mask int64 `json:"mask" toml:"mask"`
	Min  int   `json:"min" toml:"min"`
	Max  int   `json:"max" toml:"max"`
}

type NearTargetsSpec struct {
	WeightSlack int `json:"weight_slack" toml:"weight_slack"`
	MaxDistance int `json:"max_distance" toml:"max_distance"`
}

type RowSymmetrySpec struct {
	Width    int `json:"width" toml:"width"`
	Height   int `json:"height" toml:"height"`
	MinScore int `json:"min_score" toml:"min_score"`
}

type RankedOutcome struct {
	Index     int     `json:"index"`
	BitString string  `json:"bitstring"`
	Count     uint32  `json:"count"`
	Frequency float64 `json:"frequency"`
	IsTarget  bool    `json:"is_target"`
	Label     string  `json:"label,omitempty"`
}

type Result struct {
	Counts                 Counts          `json:"counts"`
	Ranked                 []RankedOutcome `json:"ranked"`
	PlannedIterations      int             `json:"planned_iterations"`
	CompletedIterations    int             `json:"completed_iterations"`
	UnderIterated          bool            `json:"under_iterated"`
	CandidateCount         int             `json:"candidate_count"`
	SuccessRate            float64         `json:"success_rate"`
	MarkedProbability      float64         `json:"marked_probability"`
	TheoreticalProbability float64         `json:"theoretical_probability"`
	Message                string          `json:"message"`
	ExecutionTime          time.Duration   `json:"execution_time"`
	Samples                []int           `json:"-"`
}

func NewResult() *Result {
	return &Result{
		Counts: make(Counts),
	}
}

func (r *Result) ToString() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error("Failed to marshal core.Result")
		return ""
	}
	st = pretty.Pretty(st)
	return string(st)
}

type JobData struct {
	ID      string
	Status  Status
	Shots   int
	Search  *SearchParams
	Result  *Result
	JobType string
	Created strfmt.DateTime
	Ended   strfmt.DateTime
	Info    string
}

func NewJobData() *JobData {
	return &JobData{
		Result:  NewResult(),
		Created: strfmt.DateTime(time.Now()),
	}
}

func (jd *JobData) Clone() *JobData {
	c := deepcopy.Copy(jd).(*JobData)
	c.Created = *jd.Created.DeepCopy()
	c.Ended = *jd.Ended.DeepCopy()
	return c
}
