package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core/assistant"
)

// headerAnswerSource tells clients whether the answer was generated by a model or is a canned one.
const headerAnswerSource = "X-Answer-Source"

type assistantApi struct {
	svc assistant.Service
}

func registerAssistantAPI(g *echo.Group, svc assistant.Service) {
	api := assistantApi{svc: svc}

	g.POST("/query", api.query)
}

// Handlers

func (api *assistantApi) query(ctx echo.Context) error {
	var data assistant.QueryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QueryRequest")
	}

	ans, err := api.svc.Answer(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "answering question")
	}

	ctx.Response().Header().Set(headerAnswerSource, ans.Source)
	return ctx.JSON(http.StatusOK, ans)
}
