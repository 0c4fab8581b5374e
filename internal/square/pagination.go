package square

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// fetchAll drains a cursor-paginated resource. Each page's cursor comes from
// the prior response, so pages are requested strictly in sequence. The only
// termination signal is an absent or empty server-supplied cursor; the page
// cap guards against a remote cursor that never empties.
func fetchAll[T any](ctx context.Context, c *Client, token string, env Environment, path, itemsKey string) ([]T, error) {
	var all []T
	cursor := ""

	for page := 0; ; page++ {
		if page >= c.maxPages {
			return nil, &PaginationLimitError{Path: path, Pages: c.maxPages}
		}

		raw, err := c.Call(ctx, http.MethodGet, pagePath(path, cursor), token, env, nil)
		if err != nil {
			return nil, err
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("square: decode page envelope: %w", err)
		}

		if itemsRaw, ok := envelope[itemsKey]; ok {
			var items []T
			if err := json.Unmarshal(itemsRaw, &items); err != nil {
				return nil, fmt.Errorf("square: decode %s page: %w", itemsKey, err)
			}
			all = append(all, items...)
		}

		cursor = ""
		if cursorRaw, ok := envelope["cursor"]; ok {
			if err := json.Unmarshal(cursorRaw, &cursor); err != nil {
				return nil, fmt.Errorf("square: decode cursor: %w", err)
			}
		}
		if cursor == "" {
			return all, nil
		}
	}
}

func pagePath(path, cursor string) string {
	if cursor == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "cursor=" + url.QueryEscape(cursor)
}
