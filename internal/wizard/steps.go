package wizard

import (
	"strconv"
	"time"

	"github.com/aashish4533/bloombook/internal/validate"
)

// Partial is a step's validated output. Only the step forms' Commit methods
// produce one, so Advance never sees unvalidated data.
type Partial interface {
	step() Step
	apply(*State)
}

type bookPartial struct{ d BookDraft }

func (p bookPartial) step() Step     { return StepBookDetails }
func (p bookPartial) apply(s *State) { s.Book = p.d }

type locationPartial struct{ d LocationDraft }

func (p locationPartial) step() Step     { return StepLocation }
func (p locationPartial) apply(s *State) { s.Location = p.d }

// ---------- Book Details ----------

// BookDetailsForm holds raw, not yet committed input for step 1.
type BookDetailsForm struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Price         string   `json:"price"`
	Condition     string   `json:"condition"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	PublishedYear string   `json:"publishedYear"`
	Language      string   `json:"language"`
	PageCount     string   `json:"pageCount"`
	Images        []string `json:"images"`
}

// BookDetailsFormFrom prefills the form from an already committed draft.
func BookDetailsFormFrom(d BookDraft) BookDetailsForm {
	f := BookDetailsForm{
		ISBN:        d.ISBN,
		Title:       d.Title,
		Author:      d.Author,
		Condition:   d.Condition,
		Category:    d.Category,
		Description: d.Description,
		Language:    d.Language,
		Images:      append([]string(nil), d.Images...),
	}
	if d.Price > 0 {
		f.Price = strconv.FormatFloat(d.Price, 'f', 2, 64)
	}
	if d.PublishedYear > 0 {
		f.PublishedYear = strconv.Itoa(d.PublishedYear)
	}
	if d.PageCount > 0 {
		f.PageCount = strconv.Itoa(d.PageCount)
	}
	return f
}

// Validate runs every field validator and returns the normalized draft
// alongside the error mapping.
func (f BookDetailsForm) Validate(now time.Time) (BookDraft, validate.FieldErrors) {
	errs := validate.FieldErrors{}
	var d BookDraft
	var err error

	if d.ISBN, err = validate.ISBN(f.ISBN); err != nil {
		errs.Add(err)
	}
	if d.Title, err = validate.Required("title", "Title", f.Title); err != nil {
		errs.Add(err)
	}
	if d.Author, err = validate.Required("author", "Author", f.Author); err != nil {
		errs.Add(err)
	}
	if d.Price, err = validate.Price(f.Price); err != nil {
		errs.Add(err)
	}
	if d.Condition, err = validate.OneOf("condition", "Condition", f.Condition, Conditions); err != nil {
		errs.Add(err)
	}
	if d.Category, err = validate.OneOf("category", "Category", f.Category, Categories); err != nil {
		errs.Add(err)
	}
	if d.Description, err = validate.MaxLen("description", "Description", f.Description, 5000); err != nil {
		errs.Add(err)
	}
	if d.PublishedYear, err = validate.PublishedYear(f.PublishedYear, now); err != nil {
		errs.Add(err)
	}
	if d.Language, err = validate.MaxLen("language", "Language", f.Language, 40); err != nil {
		errs.Add(err)
	}
	if d.PageCount, err = validate.PageCount(f.PageCount); err != nil {
		errs.Add(err)
	}
	if d.Images, err = validate.ImageKeys(f.Images, ImageKeyPrefix, MaxImages); err != nil {
		errs.Add(err)
	}
	return d, errs
}

// Commit validates the form. On failure the partial is nil and nothing
// outside the form changes.
func (f BookDetailsForm) Commit(now time.Time) (Partial, validate.FieldErrors) {
	d, errs := f.Validate(now)
	if !errs.Empty() {
		return nil, errs
	}
	return bookPartial{d: d}, nil
}

// ---------- Location ----------

type LocationForm struct {
	DeliveryMethod string   `json:"deliveryMethod"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	ZipCode        string   `json:"zipCode"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

func LocationFormFrom(d LocationDraft) LocationForm {
	f := LocationForm{
		DeliveryMethod: d.DeliveryMethod,
		Address:        d.Address,
		City:           d.City,
		State:          d.State,
		ZipCode:        d.ZipCode,
	}
	if d.Coordinates != nil {
		lat, lng := d.Coordinates.Lat, d.Coordinates.Lng
		f.Latitude, f.Longitude = &lat, &lng
	}
	return f
}

func (f LocationForm) Validate() (LocationDraft, validate.FieldErrors) {
	errs := validate.FieldErrors{}
	var d LocationDraft
	var err error

	if d.DeliveryMethod, err = validate.OneOf("deliveryMethod", "Delivery method", f.DeliveryMethod, DeliveryMethods); err != nil {
		errs.Add(err)
	}
	if d.Address, err = validate.Required("address", "Address", f.Address); err != nil {
		errs.Add(err)
	}
	if d.City, err = validate.Required("city", "City", f.City); err != nil {
		errs.Add(err)
	}
	if d.State, err = validate.Required("state", "State", f.State); err != nil {
		errs.Add(err)
	}
	if d.ZipCode, err = validate.ZipCode(f.ZipCode); err != nil {
		errs.Add(err)
	}
	if err = validate.Coordinates(f.Latitude, f.Longitude); err != nil {
		errs.Add(err)
	} else if f.Latitude != nil {
		d.Coordinates = &Coordinates{Lat: *f.Latitude, Lng: *f.Longitude}
	}
	return d, errs
}

func (f LocationForm) Commit() (Partial, validate.FieldErrors) {
	d, errs := f.Validate()
	if !errs.Empty() {
		return nil, errs
	}
	return locationPartial{d: d}, nil
}

// ---------- Views ----------

// View is the render of the current step. Exactly one of the step sections
// is set, matching Step.
type View struct {
	Kind        Kind                 `json:"kind"`
	Step        Step                 `json:"currentStep"`
	StepName    string               `json:"stepName"`
	Errors      validate.FieldErrors `json:"errors,omitempty"`
	BookDetails *BookDetailsView     `json:"bookDetails,omitempty"`
	Location    *LocationView        `json:"location,omitempty"`
	Review      *ReviewView          `json:"review,omitempty"`
	Success     *SuccessView         `json:"success,omitempty"`
}

type BookDetailsView struct {
	Form       BookDetailsForm `json:"form"`
	Conditions []string        `json:"conditions"`
	Categories []string        `json:"categories"`
	MaxImages  int             `json:"maxImages"`
	PriceLabel string          `json:"priceLabel"`
}

type LocationView struct {
	Form            LocationForm `json:"form"`
	DeliveryMethods []string     `json:"deliveryMethods"`
}

type ReviewView struct {
	Book      BookDraft     `json:"book"`
	Location  LocationDraft `json:"location"`
	EditSteps []Step        `json:"editSteps"`
}

type SuccessView struct {
	Receipt     Receipt `json:"receipt"`
	Title       string  `json:"title"`
	ListAnother bool    `json:"listAnother"`
}

// RenderBookDetails is a pure function of the committed draft and the
// current error mapping.
func RenderBookDetails(kind Kind, d BookDraft, errs validate.FieldErrors) View {
	return RenderBookDetailsForm(kind, BookDetailsFormFrom(d), errs)
}

// RenderBookDetailsForm echoes uncommitted input back with its errors.
func RenderBookDetailsForm(kind Kind, f BookDetailsForm, errs validate.FieldErrors) View {
	label := "Price"
	if kind == KindRent {
		label = "Rental price"
	}
	return View{
		Kind:     kind,
		Step:     StepBookDetails,
		StepName: StepBookDetails.String(),
		Errors:   errs,
		BookDetails: &BookDetailsView{
			Form:       f,
			Conditions: Conditions,
			Categories: Categories,
			MaxImages:  MaxImages,
			PriceLabel: label,
		},
	}
}

func RenderLocation(kind Kind, d LocationDraft, errs validate.FieldErrors) View {
	return RenderLocationForm(kind, LocationFormFrom(d), errs)
}

func RenderLocationForm(kind Kind, f LocationForm, errs validate.FieldErrors) View {
	return View{
		Kind:     kind,
		Step:     StepLocation,
		StepName: StepLocation.String(),
		Errors:   errs,
		Location: &LocationView{Form: f, DeliveryMethods: DeliveryMethods},
	}
}

func RenderReview(kind Kind, b BookDraft, l LocationDraft) View {
	return View{
		Kind:     kind,
		Step:     StepReview,
		StepName: StepReview.String(),
		Review: &ReviewView{
			Book:      b,
			Location:  l,
			EditSteps: []Step{StepBookDetails, StepLocation},
		},
	}
}

func RenderSuccess(kind Kind, b BookDraft, r Receipt) View {
	return View{
		Kind:     kind,
		Step:     StepSuccess,
		StepName: StepSuccess.String(),
		Success:  &SuccessView{Receipt: r, Title: b.Title, ListAnother: true},
	}
}

// Render dispatches on the state's current step.
func Render(s State) View {
	switch s.Step {
	case StepLocation:
		return RenderLocation(s.Kind, s.Location, nil)
	case StepReview:
		return RenderReview(s.Kind, s.Book, s.Location)
	case StepSuccess:
		var r Receipt
		if s.Receipt != nil {
			r = *s.Receipt
		}
		return RenderSuccess(s.Kind, s.Book, r)
	default:
		return RenderBookDetails(s.Kind, s.Book, nil)
	}
}
