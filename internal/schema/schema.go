// Package schema holds the declarative description of every entity kind the
// admin console manages.  One Schema per kind lists the form fields with
// their coercion rules, the table columns, the endpoint family and the name
// of the identity field.  Four generic functions consult it: FormFor,
// CollectPayload, BuildTable and the endpoint helpers on Schema.
package schema

import (
	"net/url"
	"strings"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// Input is the HTML input kind rendered for a field.
type Input string

const (
	InputText     Input = "text"
	InputEmail    Input = "email"
	InputPassword Input = "password"
	InputNumber   Input = "number"
	InputDateTime Input = "datetime-local"
	InputSelect   Input = "select"
	InputTextarea Input = "textarea"
)

// OptionSource names a dynamic option list resolved at render time.
type OptionSource string

// SourceCompanies fills a select from the cached company list.
const SourceCompanies OptionSource = "companies"

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one form field and how its raw value becomes payload.
type Field struct {
	Name     string
	Label    string
	Input    Input
	Required bool
	// OptionalOnEdit relaxes Required when editing and drops the field
	// from the payload if left empty (passwords).
	OptionalOnEdit bool
	Options        []Option
	OptionsFrom    OptionSource
	Coerce         Coercion
}

// RequiredFor reports whether the field must be filled in.
func (f Field) RequiredFor(editing bool) bool {
	if editing && f.OptionalOnEdit {
		return false
	}
	return f.Required
}

// Column is one column of the list table.
type Column struct {
	Header string
	Value  func(model.Entity) string
}

// Schema is the full description of one entity kind.
type Schema struct {
	Kind  model.Kind
	Title string
	// Resource is the collection name under /api/, e.g. "companies".
	Resource string
	// CreateResource overrides Resource for POST (users go through
	// register_admin so the backend accepts an explicit role).
	CreateResource string
	// IDField is the JSON field that carries the identity in responses.
	IDField     string
	AllowCreate bool
	Fields      []Field
	Columns     []Column
}

// CollectionPath is the list/create resource.
func (s Schema) CollectionPath() string {
	return s.Resource
}

// CreatePath is the resource POSTed to when creating.
func (s Schema) CreatePath() string {
	if s.CreateResource != "" {
		return s.CreateResource
	}
	return s.Resource
}

// ItemPath is the resource of a single entity.
func (s Schema) ItemPath(id string) string {
	return s.Resource + "/" + url.PathEscape(strings.TrimSpace(id))
}

// For returns the schema of kind.
func For(kind model.Kind) (Schema, bool) {
	s, ok := registry[kind]
	return s, ok
}

// Lookup parses a raw kind name and returns its schema.
func Lookup(raw string) (Schema, bool) {
	kind, ok := model.ParseKind(raw)
	if !ok {
		return Schema{}, false
	}
	return For(kind)
}

var transportTypes = []Option{
	{Value: "bus", Label: "Bus"},
	{Value: "flight", Label: "Flight"},
	{Value: "train", Label: "Train"},
}

var registry = map[model.Kind]Schema{
	model.KindUser: {
		Kind:           model.KindUser,
		Title:          "Users",
		Resource:       "users",
		CreateResource: "users/register_admin",
		IDField:        "id",
		AllowCreate:    true,
		Fields: []Field{
			{Name: "name", Label: "Name", Input: InputText, Required: true, Coerce: Text},
			{Name: "email", Label: "Email", Input: InputEmail, Required: true, Coerce: Email},
			{Name: "password", Label: "Password", Input: InputPassword, Required: true, OptionalOnEdit: true, Coerce: Raw},
			{Name: "phone", Label: "Phone", Input: InputText, Coerce: Text},
			{Name: "role", Label: "Role", Input: InputSelect, Required: true, Coerce: Text, Options: []Option{
				{Value: "customer", Label: "Customer"},
				{Value: model.RoleAdmin, Label: "Admin"},
			}},
		},
		Columns: []Column{
			{Header: "Name", Value: field("name")},
			{Header: "Email", Value: field("email")},
			{Header: "Phone", Value: field("phone")},
			{Header: "Role", Value: field("role")},
		},
	},
	model.KindCompany: {
		Kind:        model.KindCompany,
		Title:       "Companies",
		Resource:    "companies",
		IDField:     "id",
		AllowCreate: true,
		Fields: []Field{
			{Name: "name", Label: "Name", Input: InputText, Required: true, Coerce: Text},
			{Name: "type", Label: "Type", Input: InputSelect, Required: true, Coerce: Text, Options: transportTypes},
			{Name: "description", Label: "Description", Input: InputTextarea, Coerce: Text},
			{Name: "contact_email", Label: "Contact email", Input: InputEmail, Coerce: Email},
			{Name: "phone", Label: "Phone", Input: InputText, Coerce: Text},
		},
		Columns: []Column{
			{Header: "Name", Value: field("name")},
			{Header: "Type", Value: upper("type")},
			{Header: "Rating", Value: rating("average_rating")},
			{Header: "Reviews", Value: field("total_reviews")},
			{Header: "Contact", Value: field("contact_email")},
			{Header: "Phone", Value: field("phone")},
		},
	},
	model.KindSchedule: {
		Kind:        model.KindSchedule,
		Title:       "Schedules",
		Resource:    "schedules",
		IDField:     "id",
		AllowCreate: true,
		Fields: []Field{
			{Name: "company_id", Label: "Company", Input: InputSelect, Required: true, Coerce: Text, OptionsFrom: SourceCompanies},
			{Name: "type", Label: "Type", Input: InputSelect, Required: true, Coerce: Text, Options: transportTypes},
			{Name: "origin", Label: "Origin", Input: InputText, Required: true, Coerce: Text},
			{Name: "destination", Label: "Destination", Input: InputText, Required: true, Coerce: Text},
			{Name: "departure_date", Label: "Departure", Input: InputDateTime, Required: true, Coerce: DateTime},
			{Name: "arrival_date", Label: "Arrival", Input: InputDateTime, Coerce: DateTime},
			{Name: "price", Label: "Price", Input: InputNumber, Required: true, Coerce: IntRange(0, -1)},
			{Name: "available_seats", Label: "Available seats", Input: InputNumber, Required: true, Coerce: IntRange(0, -1)},
		},
		Columns: []Column{
			{Header: "Company", Value: scheduleCompany},
			{Header: "Type", Value: upper("type")},
			{Header: "Route", Value: route("", "origin", "destination")},
			{Header: "Departure", Value: when("departure_date")},
			{Header: "Price", Value: rupiah("price")},
			{Header: "Seats", Value: field("available_seats")},
		},
	},
	model.KindBooking: {
		Kind:     model.KindBooking,
		Title:    "Bookings",
		Resource: "bookings",
		IDField:  "_id",
		Fields: []Field{
			{Name: "user_id", Label: "User ID", Input: InputText, Required: true, Coerce: Text},
			{Name: "schedule_id", Label: "Schedule ID", Input: InputText, Required: true, Coerce: Text},
			{Name: "passenger_name", Label: "Passenger name", Input: InputText, Required: true, Coerce: Text},
			{Name: "passenger_count", Label: "Passengers", Input: InputNumber, Required: true, Coerce: IntRange(1, -1)},
			{Name: "status", Label: "Status", Input: InputSelect, Required: true, Coerce: Text, Options: []Option{
				{Value: "pending", Label: "Pending"},
				{Value: "confirmed", Label: "Confirmed"},
				{Value: "completed", Label: "Completed"},
				{Value: "cancelled", Label: "Cancelled"},
			}},
		},
		Columns: []Column{
			{Header: "Code", Value: field("booking_code")},
			{Header: "Passenger", Value: passenger},
			{Header: "User", Value: nested("user_info", "name")},
			{Header: "Route", Value: route("schedule_info", "origin", "destination")},
			{Header: "Departure", Value: nestedWhen("schedule_info", "departure_date")},
			{Header: "Total", Value: rupiah("total_price")},
			{Header: "Status", Value: field("status")},
		},
	},
	model.KindReview: {
		Kind:        model.KindReview,
		Title:       "Reviews",
		Resource:    "reviews",
		IDField:     "id",
		AllowCreate: true,
		Fields: []Field{
			{Name: "booking_id", Label: "Booking ID", Input: InputText, Required: true, Coerce: Text},
			{Name: "rating", Label: "Rating", Input: InputNumber, Required: true, Coerce: IntRange(1, 5)},
			{Name: "comment", Label: "Comment", Input: InputTextarea, Coerce: Text},
		},
		Columns: []Column{
			{Header: "Booking", Value: field("booking_id")},
			{Header: "User", Value: field("user_name")},
			{Header: "Rating", Value: stars("rating")},
			{Header: "Comment", Value: field("comment")},
			{Header: "Created", Value: when("created_at")},
		},
	},
}
