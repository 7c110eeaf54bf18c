package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultFromDate is the earliest release date requested for the catalogue.
const DefaultFromDate = "2000-01-01"

// ReadCollection returns the catalogue of tables released on or after
// fromDate (YYYY-MM-DD).
func (c *Client) ReadCollection(ctx context.Context, fromDate string) ([]byte, error) {
	if fromDate == "" {
		fromDate = DefaultFromDate
	}
	return c.FetchJSON(ctx, c.endpoint("ReadCollection", fromDate, "en"), nil)
}

// ReadMetadata returns the JSON-stat metadata document for table code.
func (c *Client) ReadMetadata(ctx context.Context, code string) ([]byte, error) {
	return c.readTable(ctx, "ReadMetadata", code)
}

// ReadDataset returns the JSON-stat dataset document for table code.
func (c *Client) ReadDataset(ctx context.Context, code string) ([]byte, error) {
	return c.readTable(ctx, "ReadDataset", code)
}

func (c *Client) readTable(ctx context.Context, method, code string) ([]byte, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	body, err := c.FetchJSON(ctx, c.endpoint(method, code, "JSON-stat", "2.0", "en"), nil)
	if errors.Is(err, ErrNotFound) {
		var apiErr *APIError
		errors.As(err, &apiErr)
		return nil, &APIError{
			URL:    apiErr.URL,
			Status: apiErr.Status,
			Detail: fmt.Sprintf("dataset %q not found; check the table code or search the catalogue to find available datasets", code),
			Err:    err,
		}
	}
	if err != nil {
		return nil, err
	}
	return RepairText(body), nil
}

// endpoint builds "<base>.<method>/<seg>/<seg>...". The PxStat API appends
// the method name to the base path with a dot.
func (c *Client) endpoint(method string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(c.baseURL.String(), "/"))
	b.WriteString(".")
	b.WriteString(method)
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
