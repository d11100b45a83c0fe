package library

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Entity is a record of a remote collection with a stable identifier.
type Entity interface {
	EntityID() string
	Label() string
	Fields() Fields
}

// Book mirrors a book record.
type Book struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Topics         TopicRefs `json:"topics"`
	TotalStock     int       `json:"totalStock"`
	AvailableStock int       `json:"availableStock"`
	IsDeleted      bool      `json:"isDeleted,omitempty"`
	CreatedAt      string    `json:"createdAt,omitempty"`
	UpdatedAt      string    `json:"updatedAt,omitempty"`
}

func (b Book) EntityID() string { return b.ID }
func (b Book) Label() string    { return b.Title }

func (b Book) Fields() Fields {
	return Fields{
		"title":  b.Title,
		"author": b.Author,
		"topics": strings.Join(b.Topics.IDs(), ", "),
	}
}

// BookSchema lists the editable book fields.
var BookSchema = []FieldSpec{
	{Name: "title", Label: "Title", Kind: KindText, Required: true},
	{Name: "author", Label: "Author", Kind: KindText, Required: true},
	{Name: "topics", Label: "Topic IDs", Kind: KindList},
}

// TopicRef is a topic reference embedded in a book. The server sends either
// bare ids or populated topic objects.
type TopicRef struct {
	ID    string `json:"id"`
	Genre string `json:"genre,omitempty"`
}

// TopicRefs decodes both id arrays and populated topic arrays.
type TopicRefs []TopicRef

func (t *TopicRefs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	refs := make(TopicRefs, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return err
			}
			refs = append(refs, TopicRef{ID: id})
			continue
		}
		var obj struct {
			ID    ID     `json:"id"`
			OID   ID     `json:"_id"`
			Genre string `json:"genre"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		id := string(obj.ID)
		if id == "" {
			id = string(obj.OID)
		}
		refs = append(refs, TopicRef{ID: id, Genre: obj.Genre})
	}
	*t = refs
	return nil
}

// IDs returns the referenced topic identifiers.
func (t TopicRefs) IDs() []string {
	ids := make([]string, 0, len(t))
	for _, ref := range t {
		ids = append(ids, ref.ID)
	}
	return ids
}

// Names returns genres where populated, falling back to ids.
func (t TopicRefs) Names() []string {
	names := make([]string, 0, len(t))
	for _, ref := range t {
		if ref.Genre != "" {
			names = append(names, ref.Genre)
		} else {
			names = append(names, ref.ID)
		}
	}
	return names
}

// Topic mirrors a topic (genre) record.
type Topic struct {
	ID          string `json:"id"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	IsDeleted   bool   `json:"isDeleted,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func (t Topic) EntityID() string { return t.ID }
func (t Topic) Label() string    { return t.Genre }

func (t Topic) Fields() Fields {
	return Fields{"genre": t.Genre, "description": t.Description}
}

// TopicSchema lists the editable topic fields.
var TopicSchema = []FieldSpec{
	{Name: "genre", Label: "Genre", Kind: KindText, Required: true},
	{Name: "description", Label: "Description", Kind: KindText},
}

// Issue statuses.
const (
	IssueStatusIssued   = "Issued"
	IssueStatusReturned = "Returned"
)

// Issue mirrors a book-issue record.
type Issue struct {
	ID                  string `json:"id"`
	BookID              string `json:"bookId"`
	UserID              string `json:"userId"`
	Status              string `json:"status"`
	IssueDate           string `json:"issueDate"`
	EstimatedReturnDate string `json:"estimatedReturnDate"`
	ReturnDate          string `json:"returnDate,omitempty"`
}

func (i Issue) EntityID() string { return i.ID }
func (i Issue) Label() string    { return i.BookID }

func (i Issue) Fields() Fields {
	return Fields{"userId": i.UserID, "bookId": i.BookID}
}

// Returned reports whether the book has been given back.
func (i Issue) Returned() bool {
	return strings.EqualFold(i.Status, IssueStatusReturned)
}

// Overdue reports whether an open issue is past its estimated return date.
func (i Issue) Overdue(now time.Time) bool {
	due := i.ParsedEstimatedReturn()
	return !i.Returned() && !due.IsZero() && now.After(due)
}

// ParsedIssueDate returns the parsed IssueDate timestamp.
func (i Issue) ParsedIssueDate() time.Time {
	return parseTime(i.IssueDate)
}

// ParsedEstimatedReturn returns the parsed EstimatedReturnDate timestamp.
func (i Issue) ParsedEstimatedReturn() time.Time {
	return parseTime(i.EstimatedReturnDate)
}

// ParsedReturnDate returns the parsed ReturnDate timestamp, zero while open.
func (i Issue) ParsedReturnDate() time.Time {
	return parseTime(i.ReturnDate)
}

// IssueSchema lists the fields needed to issue a book.
var IssueSchema = []FieldSpec{
	{Name: "userId", Label: "User ID", Kind: KindText, Required: true},
	{Name: "bookId", Label: "Book ID", Kind: KindText, Required: true},
}

// Identification document types accepted for users.
var IdentificationTypes = []string{"Aadhar", "Pan", "VoterId", "Passport"}

// User mirrors a library member (customer) record.
type User struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                ID     `json:"phone"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	IsActive             bool   `json:"isActive"`
	IsDeleted            bool   `json:"isDeleted,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
	UpdatedAt            string `json:"updatedAt,omitempty"`
}

func (u User) EntityID() string { return u.ID }
func (u User) Label() string    { return u.Name }

func (u User) Fields() Fields {
	return Fields{
		"name":                 u.Name,
		"email":                u.Email,
		"phone":                string(u.Phone),
		"identificationType":   u.IdentificationType,
		"identificationNumber": u.IdentificationNumber,
		"isActive":             strconv.FormatBool(u.IsActive),
	}
}

// UserSchema lists the editable user fields.
var UserSchema = []FieldSpec{
	{Name: "name", Label: "Name", Kind: KindText, Required: true},
	{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
	{Name: "phone", Label: "Phone", Kind: KindInt, Required: true},
	{Name: "identificationType", Label: "ID type", Kind: KindChoice, Required: true, Options: IdentificationTypes},
	{Name: "identificationNumber", Label: "ID number", Kind: KindText, Required: true},
	{Name: "isActive", Label: "Active", Kind: KindBool},
}

// ID decodes identifiers sent as JSON strings or numbers.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Totals holds dashboard counters.
type Totals struct {
	Books  int
	Topics int
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(DateLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
