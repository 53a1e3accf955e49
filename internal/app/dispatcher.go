package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"taskbox/internal/csrf"
	"taskbox/internal/model"
	"taskbox/internal/repository"
	"taskbox/internal/validate"
)

type ItemStore interface {
	List(ctx context.Context, params repository.ListParams) (*repository.ListPage, error)
	Create(ctx context.Context, title string) (*model.Item, error)
	Update(ctx context.Context, id uint, patch repository.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

// EventPublisher receives committed item mutations. Publishing is best
// effort and never changes the API response.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ItemEvent) error
}

type Result struct {
	Status int
	Body   interface{}
}

type ListResponse struct {
	Items   []model.Item `json:"items"`
	HasMore bool         `json:"has_more"`
	CSRF    string       `json:"csrf"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type FieldErrorsResponse struct {
	Errors map[string]string `json:"errors"`
}

type AckResponse struct {
	OK bool `json:"ok"`
}

// Dispatcher is the single entry point of the JSON API.
type Dispatcher struct {
	items     ItemStore
	guard     *csrf.Guard
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewDispatcher(items ItemStore, guard *csrf.Guard, publisher EventPublisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		items:     items,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Dispatch decodes body, checks the token for every action except list, runs
// the action and renders its outcome. It never returns internal error detail.
func (d *Dispatcher) Dispatch(ctx context.Context, sess csrf.SessionState, body []byte) (res Result) {
	req, token := DecodeRequest(body)

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "dispatch panicked",
				"action", req.Action(), "panic", r, "stack", string(debug.Stack()))
			res = Result{Status: http.StatusInternalServerError, Body: ErrorResponse{Error: "server error"}}
		}
	}()

	if _, isList := req.(ListRequest); !isList {
		ok, err := d.guard.Verify(ctx, sess, token)
		if err != nil {
			return d.fail(ctx, req, err)
		}
		if !ok {
			return d.fail(ctx, req, ErrCSRF)
		}
	}

	var (
		status  = http.StatusOK
		payload interface{}
		err     error
	)
	switch r := req.(type) {
	case ListRequest:
		payload, err = d.list(ctx, sess, r)
	case CreateRequest:
		status = http.StatusCreated
		payload, err = d.create(ctx, r)
	case UpdateRequest:
		payload, err = d.update(ctx, r)
	case DeleteRequest:
		payload, err = d.delete(ctx, r)
	case UnknownRequest:
		err = ErrUnknownAction
	default:
		err = fmt.Errorf("unhandled request type %T", req)
	}
	if err != nil {
		return d.fail(ctx, req, err)
	}
	return Result{Status: status, Body: payload}
}

func (d *Dispatcher) list(ctx context.Context, sess csrf.SessionState, r ListRequest) (*ListResponse, error) {
	page, err := d.items.List(ctx, repository.ListParams{
		Limit:  r.Limit,
		Offset: r.Offset,
		Query:  r.Query,
	})
	if err != nil {
		return nil, err
	}
	token, err := d.guard.Issue(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Items: page.Items, HasMore: page.HasMore, CSRF: token}, nil
}

func (d *Dispatcher) create(ctx context.Context, r CreateRequest) (*model.Item, error) {
	title, err := validate.CoerceTitle(r.Title)
	if err != nil {
		return nil, &FieldError{Field: "title", Message: msgTitleNotText}
	}
	if title == "" {
		return nil, &FieldError{Field: "title", Message: msgTitleRequired}
	}

	item, err := d.items.Create(ctx, title)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, model.ItemEventCreated, item)
	return item, nil
}

func (d *Dispatcher) update(ctx context.Context, r UpdateRequest) (*model.Item, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}

	var patch repository.ItemPatch
	if r.HasTitle {
		title, err := validate.CoerceTitle(r.Title)
		if err != nil {
			return nil, &FieldError{Field: "title", Message: msgTitleNotText}
		}
		if title == "" {
			return nil, &FieldError{Field: "title", Message: msgTitleRequired}
		}
		patch.Title = &title
	}
	if r.HasDone {
		done, err := validate.CoerceBool(r.Done)
		if err != nil {
			return nil, &FieldError{Field: "done", Message: msgDoneNotBool}
		}
		patch.Done = &done
	}
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}

	item, err := d.items.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	d.publish(ctx, model.ItemEventUpdated, item)
	return item, nil
}

func (d *Dispatcher) delete(ctx context.Context, r DeleteRequest) (*AckResponse, error) {
	id, err := parseID(r.ID)
	if err != nil {
		return nil, err
	}

	removed, err := d.items.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if removed {
		d.publish(ctx, model.ItemEventDeleted, &model.Item{ID: id})
	}
	return &AckResponse{OK: true}, nil
}

func parseID(raw json.RawMessage) (uint, error) {
	id, err := validate.CoerceID(raw)
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return uint(id), nil
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, item *model.Item) {
	if d.publisher == nil {
		return
	}
	event := model.ItemEvent{
		Type:       eventType,
		ItemID:     item.ID,
		Title:      item.Title,
		Done:       item.Done,
		OccurredAt: d.now().UTC(),
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.WarnContext(ctx, "publish item event failed",
			"type", eventType, "item_id", item.ID, "error", err)
	}
}

// fail renders err. Expected outcomes are logged at debug level only.
func (d *Dispatcher) fail(ctx context.Context, req Request, err error) Result {
	var fieldErr *FieldError
	switch {
	case errors.Is(err, ErrCSRF):
		d.logger.DebugContext(ctx, "csrf token rejected", "action", req.Action())
		return Result{Status: StatusCSRFMismatch, Body: ErrorResponse{Error: "csrf"}}
	case errors.As(err, &fieldErr):
		d.logger.DebugContext(ctx, "validation failed", "action", req.Action(), "field", fieldErr.Field)
		return Result{
			Status: http.StatusUnprocessableEntity,
			Body:   FieldErrorsResponse{Errors: map[string]string{fieldErr.Field: fieldErr.Message}},
		}
	case errors.Is(err, ErrBadID), errors.Is(err, ErrNothingToUpdate):
		d.logger.DebugContext(ctx, "validation failed", "action", req.Action(), "reason", err.Error())
		return Result{Status: http.StatusUnprocessableEntity, Body: ErrorResponse{Error: err.Error()}}
	case errors.Is(err, repository.ErrItemNotFound):
		d.logger.DebugContext(ctx, "item not found", "action", req.Action())
		return Result{Status: http.StatusNotFound, Body: ErrorResponse{Error: "not found"}}
	case errors.Is(err, ErrUnknownAction):
		d.logger.DebugContext(ctx, "unknown action", "action", req.Action())
		return Result{Status: http.StatusBadRequest, Body: ErrorResponse{Error: "unknown action"}}
	default:
		d.logger.ErrorContext(ctx, "dispatch failed", "action", req.Action(), "error", err)
		return Result{Status: http.StatusInternalServerError, Body: ErrorResponse{Error: "server error"}}
	}
}
