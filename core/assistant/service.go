package assistant

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core"
	"github.com/trezcool/unichat/core/student"
)

type (
	// Fetcher looks up a student's details; a false result means "no data".
	Fetcher interface {
		Fetch(ctx context.Context, id int) (student.Context, bool)
	}

	// Responder turns a prompt and a question into an answer.
	Responder interface {
		Respond(ctx context.Context, prompt, question string, sc student.Context) Answer
	}

	Service interface {
		Answer(ctx context.Context, qr QueryRequest) (Answer, error)
	}
)

type service struct {
	fetcher   Fetcher
	responder Responder
	validate  *validator.Validate
	logger    core.Logger
}

var _ Service = (*service)(nil)

func NewService(fetcher Fetcher, responder Responder, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		fetcher:   fetcher,
		responder: responder,
		validate:  validate,
		logger:    logger,
	}
}

// Answer answers the question of a student, fetching their details unless the request carries them.
func (svc *service) Answer(ctx context.Context, qr QueryRequest) (Answer, error) {
	if err := qr.Validate(svc.validate); err != nil {
		return Answer{}, err
	}

	sc, ok := qr.Context()
	if !ok {
		sc, _ = svc.fetcher.Fetch(ctx, *qr.StudentID)
	}

	ans := svc.responder.Respond(ctx, Compose(sc), *qr.Question, sc)
	if err := ctx.Err(); err != nil {
		return Answer{}, errors.Wrap(err, "answering question")
	}

	answersTotal.WithLabelValues(ans.Source).Inc()
	svc.logger.Debug(fmt.Sprintf("answered student %d (source: %s)", *qr.StudentID, ans.Source))
	return ans, nil
}
