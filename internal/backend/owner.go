package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

type OwnerClient struct{ c *Client }

func NewOwnerClient(c *Client) *OwnerClient { return &OwnerClient{c: c} }

func (oc *OwnerClient) Menu(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := oc.c.Do(ctx, http.MethodGet, "/owner/menu", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
