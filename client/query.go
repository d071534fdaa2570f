package client

import (
	"fmt"
	"strings"

	"github.com/google/go-querystring/query"
)

// EncodeQuery flattens a struct tagged with `url:"..."` into a query
// parameter map. Repeated values are joined with commas since a
// parameter map holds one value per key.
func EncodeQuery(v any) (map[string]string, error) {
	values, err := query.Values(v)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	params := make(map[string]string, len(values))
	for k, vs := range values {
		params[k] = strings.Join(vs, ",")
	}

	return params, nil
}
