package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDecode marks a response body that matches none of the accepted shapes.
var ErrDecode = errors.New("unrecognized response shape")

// Page is the canonical form of one page of a remote collection.
type Page[T any] struct {
	Data       []T
	Page       int
	TotalPages int
	Total      int // -1 when the server did not say
}

type pageEnvelope struct {
	Data          json.RawMessage `json:"data"`
	Content       json.RawMessage `json:"content"`
	Page          *int            `json:"page"`
	Offset        *int            `json:"offset"`
	Limit         *int            `json:"limit"`
	TotalPages    *int            `json:"totalPages"`
	Total         *int            `json:"total"`
	TotalElements *int            `json:"totalElements"`
	TotalItems    *int            `json:"totalItems"`
}

// decodePage accepts a bare array, a {data,...} object, or a
// {statusCode,message,content:{data,...}} wrapper.
func decodePage[T any](body []byte, params ListParams) (Page[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Page[T]{}, fmt.Errorf("%w: empty body", ErrDecode)
	}
	switch body[0] {
	case '[':
		items, err := decodeItems[T](body)
		if err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Data: items, Page: params.page(), TotalPages: 1, Total: len(items)}, nil
	case '{':
		var env pageEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Page[T]{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if !isArray(env.Data) && isObject(env.Content) {
			var inner pageEnvelope
			if err := json.Unmarshal(env.Content, &inner); err != nil {
				return Page[T]{}, fmt.Errorf("%w: content: %v", ErrDecode, err)
			}
			env = inner
		}
		if !isArray(env.Data) {
			return Page[T]{}, fmt.Errorf("%w: object without data array", ErrDecode)
		}
		items, err := decodeItems[T](env.Data)
		if err != nil {
			return Page[T]{}, err
		}
		page := Page[T]{Data: items, Page: params.page(), Total: -1}
		switch {
		case env.Page != nil && *env.Page > 0:
			page.Page = *env.Page
		case env.Offset != nil && *env.Offset > 0:
			page.Page = *env.Offset
		}
		for _, total := range []*int{env.Total, env.TotalElements, env.TotalItems} {
			if total != nil {
				page.Total = *total
				break
			}
		}
		limit := params.limit()
		if env.Limit != nil && *env.Limit > 0 {
			limit = *env.Limit
		}
		switch {
		case env.TotalPages != nil:
			page.TotalPages = *env.TotalPages
		case page.Total >= 0:
			page.TotalPages = (page.Total + limit - 1) / limit
		}
		if page.TotalPages < 1 {
			page.TotalPages = 1
		}
		return page, nil
	default:
		return Page[T]{}, fmt.Errorf("%w: unexpected %q", ErrDecode, body[0])
	}
}

// decodeEntity accepts the entity itself or a {message?, data:{...}} wrapper.
func decodeEntity[T any](body []byte) (T, error) {
	var zero T
	body = bytes.TrimSpace(body)
	if !isObject(body) {
		return zero, fmt.Errorf("%w: expected object", ErrDecode)
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if data, ok := outer["data"]; ok && isObject(data) && isEnvelope(outer) {
		body = data
	}
	return decodeItem[T](body)
}

// isEnvelope reports whether obj wraps an entity rather than being one. An
// entity carries its own id; envelopes carry statusCode or message.
func isEnvelope(obj map[string]json.RawMessage) bool {
	if _, ok := obj["statusCode"]; ok {
		return true
	}
	if _, ok := obj["message"]; ok {
		return true
	}
	_, hasID := obj["id"]
	_, hasMongoID := obj["_id"]
	return !hasID && !hasMongoID
}

func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	items := make([]T, 0, len(elems))
	for i, elem := range elems {
		item, err := decodeItem[T](elem)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem[T any](raw json.RawMessage) (T, error) {
	var item T
	normalized, err := normalizeEntity(raw)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(normalized, &item); err != nil {
		return item, fmt.Errorf("decode entity: %w", err)
	}
	return item, nil
}

// normalizeEntity folds "_id" into "id" and turns numeric ids into strings,
// so the rest of the client only ever sees a string "id".
func normalizeEntity(raw json.RawMessage) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: entity is not an object", ErrDecode)
	}
	id := obj["id"]
	if isEmptyID(id) {
		id = obj["_id"]
	}
	delete(obj, "_id")
	if isEmptyID(id) {
		delete(obj, "id")
	} else {
		var normalized ID
		if err := json.Unmarshal(id, &normalized); err != nil {
			return nil, fmt.Errorf("%w: id: %v", ErrDecode, err)
		}
		quoted, _ := json.Marshal(string(normalized))
		obj["id"] = quoted
	}
	return json.Marshal(obj)
}

func isEmptyID(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
