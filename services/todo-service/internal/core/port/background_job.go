package port

import "context"

// BackgroundJobPort is a long running loop started by the app. Start blocks
// until ctx is cancelled or the job fails, and returns only after the work
// in progress has finished, so there is nothing left to close.
type BackgroundJobPort interface {
	Start(ctx context.Context) error
}
