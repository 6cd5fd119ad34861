package metadata

/** @brief Entry point of a job. Results are sent on the out channel. */
type JobStart func(params interface{}, out chan<- interface{}) error

/** @brief Called with the job result once the job finished. */
type JobOnComplete func(result interface{})

/**
 * @brief Determines which job queue a job uses.
 */
type JobPriority int

const (
	JOB_PRIORITY_LOW JobPriority = iota
	JOB_PRIORITY_NORMAL
	JOB_PRIORITY_HIGH
)

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	Priority JobPriority
	/** @brief Invoked on a worker goroutine. Required. */
	OnStart JobStart
	/** @brief Invoked with the result when OnStart returned nil. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked with the error when OnStart failed. Optional. */
	OnFailure func(err error)
	/** @brief Data handed to OnStart. */
	InputParams interface{}
}
