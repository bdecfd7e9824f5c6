package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

func (c *Client) dumpRequest(req *WireRequest) {
	if !c.debug {
		return
	}
	c.log.Debug().
		Str(logger.FieldMethod, req.Method).
		Str(logger.FieldURL, req.URL).
		Strs("headers", headerLines(req.Header)).
		Int("content_length", len(req.Body)).
		Msg("request")
}

func (c *Client) dumpResponse(req *WireRequest, resp *Response) {
	if !c.debug {
		return
	}
	c.log.Debug().
		Str(logger.FieldMethod, req.Method).
		Str(logger.FieldURL, req.URL).
		Int(logger.FieldStatus, resp.StatusCode).
		Int64(logger.FieldDuration, resp.DurationMs()).
		Strs("headers", headerLines(resp.Headers)).
		Int("body_length", len(resp.Body())).
		Msg("response")
}

// headerLines renders "Name: value" lines sorted by name.
func headerLines(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(h[k], ", "))
	}
	return lines
}
