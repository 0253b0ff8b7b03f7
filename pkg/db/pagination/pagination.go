package pagination

import (
	"encoding/base64"
	"encoding/json"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50" validate:"gte=1,lte=250"`
}

type Cursor struct {
	ID string `json:"id,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(cursor Cursor) (string, error) {
	b, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// BuildPageInfo trims an over-fetched result set (limit+1 rows) and reports
// whether more rows remain past the cursor.
func BuildPageInfo[T any](rows []T, limit int, lastID func(T) string) ([]T, PageInfo) {
	if len(rows) <= limit {
		return rows, PageInfo{HasMore: false}
	}

	rows = rows[:limit]
	token, err := EncodeCursor(Cursor{ID: lastID(rows[len(rows)-1])})
	if err != nil {
		return rows, PageInfo{HasMore: true}
	}
	return rows, PageInfo{HasMore: true, NextPageToken: token}
}
