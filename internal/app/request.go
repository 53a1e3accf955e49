package app

import (
	"encoding/json"
	"strings"

	"taskbox/internal/validate"
)

type Action string

const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Request is one decoded API call. The set of implementations is closed:
// ListRequest, CreateRequest, UpdateRequest, DeleteRequest and UnknownRequest.
type Request interface {
	Action() Action
	sealed()
}

type ListRequest struct {
	Limit  int
	Offset int
	Query  string
}

type CreateRequest struct {
	Title json.RawMessage
}

// UpdateRequest keeps key presence separate from value so an omitted field
// is never mistaken for a falsy one.
type UpdateRequest struct {
	ID       json.RawMessage
	Title    json.RawMessage
	HasTitle bool
	Done     json.RawMessage
	HasDone  bool
}

type DeleteRequest struct {
	ID json.RawMessage
}

type UnknownRequest struct {
	Name string
}

func (ListRequest) Action() Action      { return ActionList }
func (CreateRequest) Action() Action    { return ActionCreate }
func (UpdateRequest) Action() Action    { return ActionUpdate }
func (DeleteRequest) Action() Action    { return ActionDelete }
func (r UnknownRequest) Action() Action { return Action(r.Name) }

func (ListRequest) sealed()    {}
func (CreateRequest) sealed()  {}
func (UpdateRequest) sealed()  {}
func (DeleteRequest) sealed()  {}
func (UnknownRequest) sealed() {}

// DecodeRequest turns a POST body into a Request and the csrf token it
// carries. A body that is not a JSON object decodes as an empty request,
// which is an UnknownRequest with no token.
func DecodeRequest(body []byte) (Request, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		fields = map[string]json.RawMessage{}
	}

	token := stringField(fields, "csrf")

	switch Action(stringField(fields, "action")) {
	case ActionList:
		return decodeList(fields), token
	case ActionCreate:
		return CreateRequest{Title: fields["title"]}, token
	case ActionUpdate:
		title, hasTitle := fields["title"]
		done, hasDone := fields["done"]
		return UpdateRequest{
			ID:       fields["id"],
			Title:    title,
			HasTitle: hasTitle,
			Done:     done,
			HasDone:  hasDone,
		}, token
	case ActionDelete:
		return DeleteRequest{ID: fields["id"]}, token
	default:
		return UnknownRequest{Name: stringField(fields, "action")}, token
	}
}

func decodeList(fields map[string]json.RawMessage) ListRequest {
	limit := validate.CoerceInt(fields["limit"], defaultListLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := validate.CoerceInt(fields["offset"], 0)
	if offset < 0 {
		offset = 0
	}

	query, err := validate.CoerceString(fields["q"])
	if err != nil {
		query = ""
	}

	return ListRequest{
		Limit:  limit,
		Offset: offset,
		Query:  strings.TrimSpace(query),
	}
}

// stringField returns the field only when it is a JSON string.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
