package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var errEmptyBody = errors.New("request body is required")

func decodeJSON(body io.ReadCloser, dest any) error {
	defer func() {
		_ = body.Close()
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(body io.ReadCloser, dest any) error {
	err := decodeJSON(body, dest)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

func decodePathParam(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	if raw == "" {
		return "", fmt.Errorf("missing %s", key)
	}

	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid path segment %q: %w", raw, err)
	}

	return value, nil
}

func optionalInt(value string, min int) (*int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	num, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", value)
	}
	if min >= 0 && num < min {
		return nil, fmt.Errorf("value must be >= %d", min)
	}

	return &num, nil
}

// queryInt reads a non-negative integer query parameter, 0 when absent.
func queryInt(r *http.Request, key string) (int, error) {
	v, err := optionalInt(r.URL.Query().Get(key), 0)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

func pathInt64(r *http.Request, key string) (int64, error) {
	raw, err := decodePathParam(r, key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return id, nil
}
