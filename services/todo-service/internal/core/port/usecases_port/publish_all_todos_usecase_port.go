package usecases_port

import "context"

// PublishReport summarises one re-broadcast tick.
type PublishReport struct {
	Total     int
	Published int
	Failed    int
	Errors    []error
}

type PublishAllTodosUseCasePort interface {
	Execute(ctx context.Context) (PublishReport, error)
}
