// Package console is the admin console controller.  It checks the operator
// session, drives the per-kind schema and talks to the booking API.  After a
// successful mutation it records an audit row, drops the company list when
// companies changed and announces the change to other replicas.
package console

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/transit-admin-console/internal/cache"
	"github.com/iliyamo/transit-admin-console/internal/model"
	"github.com/iliyamo/transit-admin-console/internal/queue"
	"github.com/iliyamo/transit-admin-console/internal/repository"
	"github.com/iliyamo/transit-admin-console/internal/schema"
)

// API is the backend call the console needs; *apiclient.Client implements it.
type API interface {
	Do(ctx context.Context, method, resource string, sess *model.Session, body, out any) error
}

// EventPublisher announces entity changes.
type EventPublisher interface {
	PublishEntityChanged(ctx context.Context, event queue.EntityChangedEvent) error
}

// AuditRecorder persists the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, e *repository.AuditEntry) error
}

// Console is safe for concurrent use.
type Console struct {
	api       API
	companies *cache.CompanyCache
	events    EventPublisher
	audit     AuditRecorder
	loc       *time.Location
}

// New wires a console.  events and audit may be nil; loc defaults to UTC.
func New(api API, companies *cache.CompanyCache, events EventPublisher, audit AuditRecorder, loc *time.Location) *Console {
	if loc == nil {
		loc = time.UTC
	}
	return &Console{api: api, companies: companies, events: events, audit: audit, loc: loc}
}

// RequireAdminSession returns sess when it is a logged-in admin session.
func RequireAdminSession(sess model.Session) (model.Session, error) {
	if !sess.IsAdmin() {
		return model.Session{}, ErrAccessDenied
	}
	return sess, nil
}

// List fetches the full collection of kind in backend order.
func (c *Console) List(ctx context.Context, sess model.Session, kind model.Kind) ([]model.Entity, error) {
	if _, err := RequireAdminSession(sess); err != nil {
		return nil, err
	}
	s, ok := schema.For(kind)
	if !ok {
		return nil, ErrUnsupportedKind
	}
	var docs []map[string]any
	if err := c.api.Do(ctx, http.MethodGet, s.CollectionPath(), &sess, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Entity, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.NewEntity(d, s.IDField))
	}
	return out, nil
}

// Get fetches one entity of kind.
func (c *Console) Get(ctx context.Context, sess model.Session, kind model.Kind, id string) (model.Entity, error) {
	if _, err := RequireAdminSession(sess); err != nil {
		return model.Entity{}, err
	}
	s, ok := schema.For(kind)
	if !ok {
		return model.Entity{}, ErrUnsupportedKind
	}
	var doc map[string]any
	if err := c.api.Do(ctx, http.MethodGet, s.ItemPath(id), &sess, nil, &doc); err != nil {
		return model.Entity{}, err
	}
	e := model.NewEntity(doc, s.IDField)
	if e.ID == "" {
		e.ID = id
	}
	return e, nil
}

// Companies returns the cached company list, loading it on first use.
func (c *Console) Companies(ctx context.Context, sess model.Session) ([]model.Company, error) {
	return c.companies.Companies(ctx, func(ctx context.Context) ([]model.Company, error) {
		entities, err := c.List(ctx, sess, model.KindCompany)
		if err != nil {
			return nil, err
		}
		list := make([]model.Company, 0, len(entities))
		for _, e := range entities {
			list = append(list, model.CompanyFromEntity(e))
		}
		return list, nil
	})
}

// RenderForm builds the create form of kind, or the edit form of the entity
// existingID.  Unknown kinds yield the unsupported placeholder form.
func (c *Console) RenderForm(ctx context.Context, sess model.Session, kind, existingID string) (schema.Form, error) {
	if _, err := RequireAdminSession(sess); err != nil {
		return schema.Form{}, err
	}
	s, ok := schema.Lookup(kind)
	if !ok {
		return schema.FormFor(kind, nil, nil, c.loc), nil
	}
	if existingID == "" && !s.AllowCreate {
		return schema.Form{}, ErrCreateDisallowed
	}

	var existing *model.Entity
	if existingID != "" {
		e, err := c.Get(ctx, sess, s.Kind, existingID)
		if err != nil {
			return schema.Form{}, err
		}
		existing = &e
	}

	var companies []model.Company
	for _, f := range s.Fields {
		if f.OptionsFrom == schema.SourceCompanies {
			list, err := c.Companies(ctx, sess)
			if err != nil {
				return schema.Form{}, err
			}
			companies = list
			break
		}
	}
	return schema.FormFor(kind, existing, companies, c.loc), nil
}

// CollectPayload turns submitted form values into the JSON payload of kind.
func (c *Console) CollectPayload(kind model.Kind, values url.Values, editing bool) (schema.Payload, error) {
	return schema.CollectPayload(kind, values, editing, c.loc)
}

// Submit creates (existingID empty) or updates an entity of kind.  Booking
// creation fails before any network call.
func (c *Console) Submit(ctx context.Context, sess model.Session, kind model.Kind, payload schema.Payload, existingID string) error {
	if _, err := RequireAdminSession(sess); err != nil {
		return err
	}
	s, ok := schema.For(kind)
	if !ok {
		return ErrUnsupportedKind
	}

	method, resource, action := http.MethodPut, s.ItemPath(existingID), queue.ActionUpdated
	if existingID == "" {
		if !s.AllowCreate {
			return ErrCreateDisallowed
		}
		method, resource, action = http.MethodPost, s.CreatePath(), queue.ActionCreated
	}

	var doc map[string]any
	err := c.api.Do(ctx, method, resource, &sess, payload, &doc)
	id := existingID
	if err == nil && id == "" {
		id = model.NewEntity(doc, s.IDField).ID
	}
	c.afterMutation(ctx, sess, kind, action, id, err)
	return err
}

// Delete removes the entity id of kind.  confirmed must be true: the
// operator has to pass through the confirmation step first.
func (c *Console) Delete(ctx context.Context, sess model.Session, kind model.Kind, id string, confirmed bool) error {
	if _, err := RequireAdminSession(sess); err != nil {
		return err
	}
	s, ok := schema.For(kind)
	if !ok {
		return ErrUnsupportedKind
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	err := c.api.Do(ctx, http.MethodDelete, s.ItemPath(id), &sess, nil, nil)
	c.afterMutation(ctx, sess, kind, queue.ActionDeleted, id, err)
	return err
}

// CompleteBooking marks a booking completed so its customer may review it.
func (c *Console) CompleteBooking(ctx context.Context, sess model.Session, id string) error {
	if _, err := RequireAdminSession(sess); err != nil {
		return err
	}
	s, _ := schema.For(model.KindBooking)
	err := c.api.Do(ctx, http.MethodPut, s.ItemPath(id)+"/complete", &sess, nil, nil)
	c.afterMutation(ctx, sess, model.KindBooking, queue.ActionCompleted, id, err)
	return err
}

func (c *Console) afterMutation(ctx context.Context, sess model.Session, kind model.Kind, action, id string, err error) {
	entry := &repository.AuditEntry{
		ActorID:   sess.ID,
		ActorName: sess.Name,
		Kind:      string(kind),
		Action:    action,
		EntityID:  id,
		Outcome:   repository.OutcomeOK,
	}
	if err != nil {
		entry.Outcome = repository.OutcomeFailed
		entry.Message = Notice(err)
	}
	if c.audit != nil {
		if aerr := c.audit.Record(ctx, entry); aerr != nil {
			log.Printf("console: audit write failed: %v", aerr)
		}
	}
	if err != nil {
		return
	}

	if kind == model.KindCompany {
		c.companies.Invalidate(ctx)
	}
	if c.events != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		_ = c.events.PublishEntityChanged(pubCtx, queue.NewEntityChangedEvent(kind, action, id, sess.ID))
	}
}
