package wizard

import "time"

// Kind selects which listing flow the user is in.
type Kind string

const (
	KindSell Kind = "sell"
	KindRent Kind = "rent"
)

// ParseKind returns ok=false for anything other than "sell" or "rent".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSell, KindRent:
		return Kind(s), true
	}
	return "", false
}

// Step is the 1-based index of a wizard screen.
type Step int

const (
	StepBookDetails Step = iota + 1
	StepLocation
	StepReview
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepBookDetails:
		return "book_details"
	case StepLocation:
		return "location"
	case StepReview:
		return "review"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

var (
	Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

	Categories = []string{
		"Fiction", "Non-Fiction", "Science", "Technology", "History", "Biography",
		"Children", "Education", "Business", "Self-Help", "Romance", "Mystery",
		"Fantasy", "Poetry", "Comics", "Other",
	}

	DeliveryMethods = []string{"pickup", "shipping", "both"}
)

// Listing image keys must live under this prefix.
const (
	ImageKeyPrefix = "listings/"
	MaxImages      = 6
)

// BookDraft is the book half of an unsubmitted listing.
type BookDraft struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Price         float64  `json:"price"`
	Condition     string   `json:"condition"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	Language      string   `json:"language"`
	PageCount     int      `json:"pageCount,omitempty"`
	Images        []string `json:"images"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationDraft is where and how the book changes hands.
type LocationDraft struct {
	DeliveryMethod string       `json:"deliveryMethod"`
	Address        string       `json:"address"`
	City           string       `json:"city"`
	State          string       `json:"state"`
	ZipCode        string       `json:"zipCode"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
}

// Receipt is what the submission seam hands back on success.
type Receipt struct {
	ListingID   string    `json:"listingId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// State is the single source of truth for one wizard instance.
type State struct {
	Kind      Kind          `json:"kind"`
	Step      Step          `json:"currentStep"`
	Book      BookDraft     `json:"bookDraft"`
	Location  LocationDraft `json:"locationDraft"`
	Receipt   *Receipt      `json:"receipt,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func initialState(kind Kind) State {
	return State{Kind: kind, Step: StepBookDetails, Book: BookDraft{Images: []string{}}}
}
