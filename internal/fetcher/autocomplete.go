package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/catalog"
	"github.com/rohmanhakim/fic-roulette/internal/metadata"
)

// AutocompleteFandom asks the catalog for fandom names starting with term.
// It makes a single attempt; suggestions are best-effort.
func (h *HTTPFetcher) AutocompleteFandom(
	ctx context.Context,
	term string,
	timeout time.Duration,
) ([]AutocompleteEntry, error) {
	callerMethod := "HTTPFetcher.AutocompleteFandom"
	endpoint := h.param.BaseURL
	endpoint.Path = catalog.AutocompleteFandomPath
	q := endpoint.Query()
	q.Set("term", term)
	endpoint.RawQuery = q.Encode()

	if err := h.rateLimiter.Wait(ctx, endpoint.Host); err != nil {
		return nil, contextFetchError(err)
	}

	reqCtx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &FetchError{Message: err.Error(), Cause: ErrCauseNetworkFailure}
	}
	req.Header.Set("User-Agent", h.param.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		fetchErr := transportFetchError(reqCtx, err)
		h.recordAutocompleteError(callerMethod, endpoint.String(), fetchErr)
		return nil, fetchErr
	}
	defer resp.Body.Close()

	if fetchErr := statusFetchError(resp.StatusCode); fetchErr != nil {
		h.recordAutocompleteError(callerMethod, endpoint.String(), fetchErr)
		return nil, fetchErr
	}

	var entries []AutocompleteEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&entries); err != nil {
		fetchErr := &FetchError{
			Message: fmt.Sprintf("invalid autocomplete payload: %v", err),
			Cause:   ErrCauseDecodeFailure,
		}
		h.recordAutocompleteError(callerMethod, endpoint.String(), fetchErr)
		return nil, fetchErr
	}
	return entries, nil
}

func (h *HTTPFetcher) recordAutocompleteError(callerMethod string, endpoint string, err *FetchError) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, endpoint),
		},
	)
}
