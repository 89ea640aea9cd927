package livejournal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"ljdl/pkg/errors"
)

// rpcRequest is one JSON-RPC 2.0 call inside a batch
type rpcRequest struct {
	ID      int         `json:"id"`
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is one envelope of a batch reply
type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call posts a single-element batch and returns the decoded envelopes.
// Envelopes carrying a JSON-RPC error are reported as API errors.
func (c *Client) call(ctx context.Context, session *Session, referer string, origin string, method string, id int, params interface{}) ([]rpcResponse, error) {
	if !session.Valid() {
		return nil, errors.Auth("no authenticated session for %s", method)
	}

	payload, err := json.Marshal([]rpcRequest{{
		ID:      id,
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}})
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAPI, err, "failed to encode %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeAPI, err, "failed to create %s request", method)
	}
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)
	for _, cookie := range session.Cookies() {
		req.AddCookie(cookie)
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	body, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	envelopes, err := decodeEnvelopes(body)
	if err != nil {
		c.logger.ErrorWithFields("failed to parse RPC response", map[string]interface{}{
			"method":       method,
			"error":        err.Error(),
			"body_preview": bodyPreview(body),
		})
		return nil, errors.Wrap(errors.ErrorTypeAPI, err, "malformed %s response", method)
	}

	for _, env := range envelopes {
		if env.Error != nil {
			return nil, &errors.Error{
				Type:    errors.ErrorTypeAPI,
				Message: method + ": " + env.Error.Message,
				Code:    env.Error.Code,
			}
		}
	}
	return envelopes, nil
}

// decodeEnvelopes accepts a batch array or a lone envelope object
func decodeEnvelopes(body []byte) ([]rpcResponse, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var single rpcResponse
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, err
		}
		return []rpcResponse{single}, nil
	}

	var batch []rpcResponse
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}
