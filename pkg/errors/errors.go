package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// queue related errors
	ErrQueueEmpty     = errors.Normalize("blocking queue is empty", errors.RFCCodeText("DFLOW:ErrQueueEmpty"))
	ErrQueueNotOwner  = errors.Normalize("unlock of blocking queue by goroutine %d, which does not own the lock", errors.RFCCodeText("DFLOW:ErrQueueNotOwner"))
	ErrQueueRelock    = errors.Normalize("goroutine %d locks a blocking queue it already owns", errors.RFCCodeText("DFLOW:ErrQueueRelock"))
	ErrNotifierClosed = errors.Normalize("notifier has been closed", errors.RFCCodeText("DFLOW:ErrNotifierClosed"))

	// workload related errors
	ErrWorkloadConfigInvalid     = errors.Normalize("workload config is invalid: %s", errors.RFCCodeText("DFLOW:ErrWorkloadConfigInvalid"))
	ErrWorkloadDecodeConfigFile  = errors.Normalize("decode workload config file failed", errors.RFCCodeText("DFLOW:ErrWorkloadDecodeConfigFile"))
	ErrWorkloadConfigUnknownItem = errors.Normalize("workload config contains unknown configuration options: %s", errors.RFCCodeText("DFLOW:ErrWorkloadConfigUnknownItem"))
	ErrWorkloadDuplicateItem     = errors.Normalize("item %#x popped more than once", errors.RFCCodeText("DFLOW:ErrWorkloadDuplicateItem"))
	ErrWorkloadLostItem          = errors.Normalize("%d pushed items were never popped", errors.RFCCodeText("DFLOW:ErrWorkloadLostItem"))
	ErrWorkloadOrderViolation    = errors.Normalize("producer %d: item %d popped after item %d", errors.RFCCodeText("DFLOW:ErrWorkloadOrderViolation"))
)

// Wrap returns rfcError annotated with the message of err. The result still
// satisfies rfcError.Equal. A nil err gives nil.
func Wrap(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Annotate(rfcError.GenWithStackByArgs(args...), err.Error())
}
