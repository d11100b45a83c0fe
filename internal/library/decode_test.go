package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		params    ListParams
		wantIDs   []string
		wantPage  int
		wantPages int
		wantTotal int
	}{
		{
			name:      "bare array",
			body:      `[{"id":"a","genre":"x"},{"_id":"b","genre":"y"}]`,
			params:    ListParams{Offset: 3},
			wantIDs:   []string{"a", "b"},
			wantPage:  3,
			wantPages: 1,
			wantTotal: 2,
		},
		{
			name:      "data with page and total",
			body:      `{"data":[{"id":1}],"page":2,"totalPages":5,"total":41}`,
			wantIDs:   []string{"1"},
			wantPage:  2,
			wantPages: 5,
			wantTotal: 41,
		},
		{
			name:      "spring style ignores zero based number",
			body:      `{"data":[{"_id":"z"}],"number":0,"size":10,"totalElements":25,"totalPages":3}`,
			params:    ListParams{Offset: 2},
			wantIDs:   []string{"z"},
			wantPage:  2,
			wantPages: 3,
			wantTotal: 25,
		},
		{
			name:      "content wrapper with offset and totalItems",
			body:      `{"statusCode":200,"message":"ok","content":{"data":[{"_id":"c1"}],"offset":4,"limit":10,"totalPages":6,"totalItems":55}}`,
			wantIDs:   []string{"c1"},
			wantPage:  4,
			wantPages: 6,
			wantTotal: 55,
		},
		{
			name:      "total pages derived from total and limit",
			body:      `{"data":[],"total":21}`,
			params:    ListParams{Limit: 10},
			wantIDs:   []string{},
			wantPage:  1,
			wantPages: 3,
			wantTotal: 21,
		},
		{
			name:      "zero total pages clamps to one",
			body:      `{"data":[],"totalPages":0}`,
			wantIDs:   []string{},
			wantPage:  1,
			wantPages: 1,
			wantTotal: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage[Topic]([]byte(tt.body), tt.params)
			require.NoError(t, err)
			ids := make([]string, 0, len(page.Data))
			for _, item := range page.Data {
				ids = append(ids, item.EntityID())
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestDecodePage_RejectsUnknownShapes(t *testing.T) {
	for _, body := range []string{``, `"nope"`, `{"items":[]}`, `{"data":{"id":"x"}}`, `[1,2]`} {
		_, err := decodePage[Book]([]byte(body), ListParams{})
		assert.ErrorIs(t, err, ErrDecode, "body %q", body)
	}
}

func TestDecodeEntity_UnwrapsData(t *testing.T) {
	book, err := decodeEntity[Book]([]byte(`{"message":"ok","data":{"_id":"b9","title":"Emma","topics":["t1",{"_id":"t2","genre":"Classic"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "b9", book.ID)
	assert.Equal(t, []string{"t1", "t2"}, book.Topics.IDs())
	assert.Equal(t, []string{"t1", "Classic"}, book.Topics.Names())

	topic, err := decodeEntity[Topic]([]byte(`{"id":12,"genre":"Poetry"}`))
	require.NoError(t, err)
	assert.Equal(t, "12", topic.ID)
}

func TestDecodeEntity_KeepsEntityWithOwnDataField(t *testing.T) {
	topic, err := decodeEntity[Topic]([]byte(`{"_id":"t1","genre":"Poetry","data":{"genre":"inner"}}`))
	require.NoError(t, err)
	assert.Equal(t, Topic{ID: "t1", Genre: "Poetry"}, topic)

	topic, err = decodeEntity[Topic]([]byte(`{"statusCode":200,"data":{"_id":"t2","genre":"Drama"}}`))
	require.NoError(t, err)
	assert.Equal(t, Topic{ID: "t2", Genre: "Drama"}, topic)

	topic, err = decodeEntity[Topic]([]byte(`{"data":{"_id":"t3","genre":"Essay"}}`))
	require.NoError(t, err)
	assert.Equal(t, "t3", topic.ID)
}

func TestDecodeEntity_PhoneAcceptsNumbers(t *testing.T) {
	user, err := decodeEntity[User]([]byte(`{"_id":"u1","name":"Ann","phone":9876543210,"isActive":true}`))
	require.NoError(t, err)
	assert.Equal(t, "9876543210", user.Fields()["phone"])
	assert.Equal(t, "true", user.Fields()["isActive"])
}

func TestDecodeCount(t *testing.T) {
	for body, want := range map[string]int{
		`7`:                    7,
		`{"total":3}`:          3,
		`{"data":9}`:           9,
		`{"data":{"count":2}}`: 2,
	} {
		got, err := decodeCount([]byte(body))
		require.NoError(t, err, body)
		assert.Equal(t, want, got, body)
	}
	_, err := decodeCount([]byte(`{"other":1}`))
	assert.ErrorIs(t, err, ErrDecode)
}
