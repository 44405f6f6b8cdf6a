package listview

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the session list page length.
const DefaultPageSize = 50

// Filter is the user-editable narrowing of a list. Zero values mean "no filter".
type Filter struct {
	CompanyID string `json:"companyId,omitempty" form:"companyId"`
	UserID    string `json:"userId,omitempty" form:"userId"`
	Status    string `json:"status,omitempty" form:"status" validate:"session_status"`
	From      string `json:"from,omitempty" form:"from"`
	To        string `json:"to,omitempty" form:"to"`
	Role      string `json:"role,omitempty" form:"role" validate:"omitempty,oneof=admin employee"`
	ShowAll   bool   `json:"showAll,omitempty" form:"showAll"`
	Suspect   bool   `json:"suspect,omitempty" form:"suspect"`
}

// Normalize trims every text field.
func (f Filter) Normalize() Filter {
	f.CompanyID = strings.TrimSpace(f.CompanyID)
	f.UserID = strings.TrimSpace(f.UserID)
	f.Status = strings.TrimSpace(f.Status)
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)
	f.Role = strings.TrimSpace(f.Role)
	return f
}

// Query is the request parameter set derived from a filter and page cursor.
type Query struct {
	values url.Values
}

// BuildQuery derives request parameters. Empty text fields are omitted, flags are sent
// only when set, and skip/limit are added when pageSize is positive. pageIndex is zero based.
func BuildQuery(f Filter, pageIndex, pageSize int) Query {
	f = f.Normalize()
	values := url.Values{}

	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("companyId", f.CompanyID)
	set("userId", f.UserID)
	set("status", f.Status)
	set("from", f.From)
	set("to", f.To)
	set("role", f.Role)
	if f.ShowAll {
		values.Set("showAll", "true")
	}
	if f.Suspect {
		values.Set("suspect", "true")
	}

	if pageSize > 0 {
		if pageIndex < 0 {
			pageIndex = 0
		}
		values.Set("skip", strconv.Itoa(pageIndex*pageSize))
		values.Set("limit", strconv.Itoa(pageSize))
	}
	return Query{values: values}
}

// NewQuery wraps parameters that do not come from a Filter, such as a report
// selection. values is copied.
func NewQuery(values url.Values) Query {
	return Query{values: Query{values: values}.Values()}
}

// Values returns a copy of the parameters.
func (q Query) Values() url.Values {
	out := make(url.Values, len(q.values))
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Get returns the first value of key.
func (q Query) Get(key string) string {
	return q.values.Get(key)
}

// Has reports whether key is present.
func (q Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Key is the canonical, key-sorted encoding of the query.
func (q Query) Key() string {
	return q.values.Encode()
}

func (q Query) String() string {
	return q.Key()
}
