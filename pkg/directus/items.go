package directus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ListMeta is the metadata block of a list response. Counts are nil when the
// API did not report them.
type ListMeta struct {
	TotalCount  *int
	FilterCount *int
}

// ListItems reads a page of items from collection into dest (a pointer to a
// slice).
func (c *Client) ListItems(ctx context.Context, collection string, q Query, dest any) (ListMeta, error) {
	params, err := q.Values()
	if err != nil {
		return ListMeta{}, fmt.Errorf("encode query: %w", err)
	}
	target := c.itemsURL(collection, "", params)

	body, err := c.do(ctx, "list_"+collection, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return ListMeta{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ListMeta{}, fmt.Errorf("decode %s list: %w", collection, err)
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return ListMeta{}, fmt.Errorf("decode %s items: %w", collection, err)
		}
	}

	return ListMeta{
		TotalCount:  countAt(body, "meta.total_count"),
		FilterCount: countAt(body, "meta.filter_count"),
	}, nil
}

// GetItem reads a single item. A null data payload is reported as a 404.
func (c *Client) GetItem(ctx context.Context, collection, id string, fields []string, dest any) error {
	params := url.Values{}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	target := c.itemsURL(collection, id, params)

	body, err := c.do(ctx, "get_"+collection, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return err
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return &APIError{StatusCode: http.StatusNotFound, Message: "item not found"}
	}
	if err := json.Unmarshal([]byte(data.Raw), dest); err != nil {
		return fmt.Errorf("decode %s item: %w", collection, err)
	}
	return nil
}

// CreateItem posts body to collection. dest may be nil.
func (c *Client) CreateItem(ctx context.Context, collection string, body any, dest any) error {
	target := c.itemsURL(collection, "", nil)

	raw, err := c.do(ctx, "create_"+collection, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, target, body)
	})
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	data := gjson.GetBytes(raw, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil
	}
	if err := json.Unmarshal([]byte(data.Raw), dest); err != nil {
		return fmt.Errorf("decode created %s: %w", collection, err)
	}
	return nil
}

// countAt reads an integer count that may be encoded as a number or a
// numeric string.
func countAt(body []byte, path string) *int {
	res := gjson.GetBytes(body, path)
	if !res.Exists() || res.Type == gjson.Null {
		return nil
	}
	if res.Type == gjson.String {
		if _, err := fmt.Sscanf(res.Str, "%d", new(int)); err != nil {
			return nil
		}
	}
	n := int(res.Int())
	return &n
}

// Ping checks that the API answers /server/ping.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, c.baseURL+"/server/ping", nil)
	})
	return err
}
