package library

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	issueListPath   = "api/book-issue/all"
	issueCreatePath = "api/book-issue/issue"
	issueReturnPath = "api/book-issue/return"
	issueUserPath   = "api/book-issue/user"
)

// IssueBook lends bookID to userID.
func (c *Client) IssueBook(ctx context.Context, userID, bookID string) (Issue, error) {
	return c.Issues().Create(ctx, Fields{"userId": userID, "bookId": bookID})
}

// ReturnBook closes the open issue of bookID held by userID.
func (c *Client) ReturnBook(ctx context.Context, userID, bookID string) (Issue, error) {
	payload, err := Encode(IssueSchema, Fields{"userId": userID, "bookId": bookID})
	if err != nil {
		return Issue{}, err
	}
	body, err := c.do(ctx, request{method: http.MethodPost, rel: &url.URL{Path: issueReturnPath}, body: payload})
	if err != nil {
		return Issue{}, fmt.Errorf("return book %s: %w", bookID, err)
	}
	issue, err := decodeEntity[Issue](body)
	if err != nil {
		return Issue{}, fmt.Errorf("return book %s: %w", bookID, err)
	}
	return issue, nil
}

// IssuesByUser lists every issue recorded for userID.
func (c *Client) IssuesByUser(ctx context.Context, userID string) ([]Issue, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	rel := &url.URL{Path: issueUserPath + "/" + userID, RawPath: issueUserPath + "/" + url.PathEscape(userID)}
	body, err := c.do(ctx, request{method: http.MethodGet, rel: rel})
	if err != nil {
		return nil, fmt.Errorf("issues for user %s: %w", userID, err)
	}
	page, err := decodePage[Issue](body, ListParams{})
	if err != nil {
		return nil, fmt.Errorf("issues for user %s: %w", userID, err)
	}
	return page.Data, nil
}
