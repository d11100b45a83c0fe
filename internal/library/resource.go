package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultOffset = 1
	defaultLimit  = 10
)

// ListParams are the query values understood by every list endpoint.
// Offset is a 1-based page number, not an item offset.
type ListParams struct {
	Offset         int
	Limit          int
	Sort           string // "field:asc" or "field:desc"
	Search         string
	IncludeDeleted bool
}

func (p ListParams) page() int {
	if p.Offset < 1 {
		return defaultOffset
	}
	return p.Offset
}

func (p ListParams) limit() int {
	if p.Limit < 1 {
		return defaultLimit
	}
	return p.Limit
}

// Values encodes the params as URL query values.
func (p ListParams) Values() url.Values {
	values := url.Values{}
	values.Set("offset", strconv.Itoa(p.page()))
	values.Set("limit", strconv.Itoa(p.limit()))
	if sort := strings.TrimSpace(p.Sort); sort != "" {
		values.Set("sort", sort)
	}
	if search := strings.TrimSpace(p.Search); search != "" {
		values.Set("search", search)
	}
	if p.IncludeDeleted {
		values.Set("includeDeleted", "true")
	}
	return values
}

// Resource is the REST surface of one collection.
type Resource[T Entity] struct {
	client     *Client
	name       string
	listPath   string
	itemPath   string // empty when items cannot be addressed by id
	createPath string
	schema     []FieldSpec
}

// Books returns the book collection.
func (c *Client) Books() *Resource[Book] {
	return &Resource[Book]{client: c, name: "books", listPath: "api/books", itemPath: "api/books", createPath: "api/books", schema: BookSchema}
}

// Topics returns the topic collection.
func (c *Client) Topics() *Resource[Topic] {
	return &Resource[Topic]{client: c, name: "topics", listPath: "api/topics", itemPath: "api/topics", createPath: "api/topics", schema: TopicSchema}
}

// Users returns the member (customer) collection.
func (c *Client) Users() *Resource[User] {
	return &Resource[User]{client: c, name: "users", listPath: "api/customers", itemPath: "api/customers", createPath: "api/customers", schema: UserSchema}
}

// Issues returns the book-issue collection. Creating an issue lends a book.
func (c *Client) Issues() *Resource[Issue] {
	return &Resource[Issue]{client: c, name: "issues", listPath: issueListPath, createPath: issueCreatePath, schema: IssueSchema}
}

// Name returns the collection name used in logs and errors.
func (r *Resource[T]) Name() string { return r.name }

// Schema returns the editable fields.
func (r *Resource[T]) Schema() []FieldSpec { return r.schema }

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, params ListParams) (Page[T], error) {
	rel := &url.URL{Path: r.listPath, RawQuery: params.Values().Encode()}
	body, err := r.client.do(ctx, request{method: http.MethodGet, rel: rel})
	if err != nil {
		return Page[T]{}, fmt.Errorf("list %s: %w", r.name, err)
	}
	page, err := decodePage[T](body, params)
	if err != nil {
		return Page[T]{}, fmt.Errorf("list %s: %w", r.name, err)
	}
	return page, nil
}

// Get fetches one item by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	rel, err := r.itemURL(id)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", r.name, err)
	}
	body, err := r.client.do(ctx, request{method: http.MethodGet, rel: rel})
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", r.name, id, err)
	}
	item, err := decodeEntity[T](body)
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", r.name, id, err)
	}
	return item, nil
}

// Create validates fields and creates a new item.
func (r *Resource[T]) Create(ctx context.Context, fields Fields) (T, error) {
	var zero T
	if r.createPath == "" {
		return zero, fmt.Errorf("create %s: %w", r.name, errors.ErrUnsupported)
	}
	payload, err := Encode(r.schema, fields)
	if err != nil {
		return zero, err
	}
	body, err := r.client.do(ctx, request{method: http.MethodPost, rel: &url.URL{Path: r.createPath}, body: payload})
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", r.name, err)
	}
	item, err := decodeEntity[T](body)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", r.name, err)
	}
	return item, nil
}

// Update sends a partial update and returns the server's canonical item.
func (r *Resource[T]) Update(ctx context.Context, id string, fields Fields) (T, error) {
	var zero T
	rel, err := r.itemURL(id)
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", r.name, err)
	}
	payload, err := EncodeUpdate(r.schema, fields)
	if err != nil {
		return zero, err
	}
	body, err := r.client.do(ctx, request{method: http.MethodPatch, rel: rel, body: payload})
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", r.name, id, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return r.Get(ctx, id)
	}
	item, err := decodeEntity[T](body)
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", r.name, id, err)
	}
	return item, nil
}

// Delete removes one item by id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	rel, err := r.itemURL(id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	if _, err := r.client.do(ctx, request{method: http.MethodDelete, rel: rel}); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.name, id, err)
	}
	return nil
}

func (r *Resource[T]) itemURL(id string) (*url.URL, error) {
	if r.itemPath == "" {
		return nil, errors.ErrUnsupported
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("id required")
	}
	return &url.URL{Path: r.itemPath + "/" + id, RawPath: r.itemPath + "/" + url.PathEscape(id)}, nil
}
