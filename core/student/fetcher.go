package student

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/unichat/core"
)

// maxLoggedBody bounds how much of an error response body ends up in the logs.
const maxLoggedBody = 2048

// Fetcher retrieves student details from the academic data service.
type Fetcher struct {
	baseURL      string
	alternateURL string
	http         *http.Client
	logger       core.Logger
}

func NewFetcher(conf core.BackendConfig, logger core.Logger) *Fetcher {
	return &Fetcher{
		baseURL:      conf.BaseURL,
		alternateURL: conf.AlternateURL,
		http:         &http.Client{Timeout: conf.Timeout},
		logger:       logger,
	}
}

// Fetch returns the details of student `id`.
// A non-200 answer from the primary host is retried once against the alternate host;
// transport or decoding failures end the lookup. Failures are logged and reported as "no data".
func (f *Fetcher) Fetch(ctx context.Context, id int) (Context, bool) {
	sc, status, body, err := f.get(ctx, f.baseURL, id)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		f.logger.Error(fmt.Sprintf("fetching student %d: %v", id, err), err)
		return Context{}, false
	}
	if status == http.StatusOK {
		fetchTotal.WithLabelValues("primary").Inc()
		return sc, true
	}
	f.logger.Warn(fmt.Sprintf("fetching student %d - status: %d - Body: %s", id, status, body))

	if f.alternateURL == "" {
		fetchTotal.WithLabelValues("not_found").Inc()
		return Context{}, false
	}

	sc, status, body, err = f.get(ctx, f.alternateURL, id)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		f.logger.Error(fmt.Sprintf("fetching student %d from alternate host: %v", id, err), err)
		return Context{}, false
	}
	if status != http.StatusOK {
		fetchTotal.WithLabelValues("not_found").Inc()
		f.logger.Warn(fmt.Sprintf("fetching student %d from alternate host - status: %d - Body: %s", id, status, body))
		return Context{}, false
	}
	fetchTotal.WithLabelValues("alternate").Inc()
	return sc, true
}

func (f *Fetcher) get(ctx context.Context, baseURL string, id int) (Context, int, []byte, error) {
	url := baseURL + "/alunos/" + strconv.Itoa(id) + "/detalhes/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Context{}, 0, nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := f.http.Do(req)
	if err != nil {
		return Context{}, 0, nil, errors.Wrap(err, "requesting "+url)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxLoggedBody))
		return Context{}, res.StatusCode, body, nil
	}

	var sc Context
	if err = json.NewDecoder(res.Body).Decode(&sc); err != nil {
		return Context{}, res.StatusCode, nil, errors.Wrap(err, "decoding student details")
	}
	return sc, res.StatusCode, nil, nil
}
