package rest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/veiloq/bitforex-connector/pkg/logging"
)

// maxTraceBodySize caps how much of a request or response body lands in the
// trace log.
const maxTraceBodySize = 4096

// traceRequest logs a wire-level dump of the outbound request. The body is
// read and restored so the request remains usable.
func (c *Client) traceRequest(req *http.Request) {
	var dump []byte
	var err error

	if req.Body != nil {
		bodyBytes, bodyErr := io.ReadAll(req.Body)
		if bodyErr != nil {
			c.logger.Warn("failed to read request body for trace", logging.Error(bodyErr))
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		dump, err = httputil.DumpRequestOut(req, false)
		if err == nil {
			dump = append(dump, truncateBody(bodyBytes)...)
		}
	} else {
		dump, err = httputil.DumpRequestOut(req, true)
	}

	if err != nil {
		c.logger.Warn("failed to dump request for trace", logging.Error(err))
		return
	}

	c.logger.Debug("rest trace request",
		logging.String("method", req.Method),
		logging.String("url", req.URL.String()),
		logging.String("dump", string(dump)),
	)
}

// traceResponse logs a wire-level dump of the inbound response. The body has
// already been drained by the caller and is passed in separately.
func (c *Client) traceResponse(resp *http.Response, body []byte) {
	dump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		c.logger.Warn("failed to dump response for trace", logging.Error(err))
		return
	}
	dump = append(dump, truncateBody(body)...)

	c.logger.Debug("rest trace response",
		logging.Int("status", resp.StatusCode),
		logging.String("dump", string(dump)),
	)
}

func truncateBody(body []byte) []byte {
	if len(body) > maxTraceBodySize {
		return body[:maxTraceBodySize]
	}
	return body
}
