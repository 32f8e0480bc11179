package types

// MaxImages caps the number of image URLs carried by an Ad.
const MaxImages = 6

// Ad is a single normalized classified listing.
//
// An Ad is treated as a value: once built it is never modified in place.
// Enrichment produces a new Ad via WithFallback.
type Ad struct {
	// ID is the digit run taken from the listing URL or marker attribute.
	ID string `json:"id" bson:"ad_id"`

	// Title is the whitespace-normalized headline, at least three characters.
	Title string `json:"title" bson:"title"`

	// URL is the absolute listing URL.
	URL string `json:"url" bson:"url"`

	// Price is normalized money text such as "$45,000.00".
	Price string `json:"price,omitempty" bson:"price,omitempty"`

	// Location is free text, e.g. "Tulsa, OK".
	Location string `json:"location,omitempty" bson:"location,omitempty"`

	// Posted is the posting date exactly as shown on the page.
	Posted string `json:"posted,omitempty" bson:"posted,omitempty"`

	// Description is the normalized listing body.
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	// Images holds up to MaxImages large image URLs in first-seen order.
	Images []string `json:"images,omitempty" bson:"images,omitempty"`
}

// NewAd builds an Ad from its required fields and any options.
func NewAd(id, title, url string, opts ...AdOption) Ad {
	ad := Ad{ID: id, Title: title, URL: url}
	for _, opt := range opts {
		opt(&ad)
	}
	return ad
}

// AdOption sets an optional field while an Ad is being built.
type AdOption func(*Ad)

// WithPrice sets the normalized price.
func WithPrice(price string) AdOption { return func(a *Ad) { a.Price = price } }

// WithLocation sets the location text.
func WithLocation(loc string) AdOption { return func(a *Ad) { a.Location = loc } }

// WithPosted sets the posted date text.
func WithPosted(posted string) AdOption { return func(a *Ad) { a.Posted = posted } }

// WithDescription sets the normalized description.
func WithDescription(desc string) AdOption { return func(a *Ad) { a.Description = desc } }

// WithImages sets the image list. The slice is copied and capped at MaxImages.
func WithImages(images []string) AdOption {
	return func(a *Ad) { a.Images = copyImages(images) }
}

// HasDetails reports whether price, description and images are all present.
func (a Ad) HasDetails() bool {
	return a.Price != "" && a.Description != "" && len(a.Images) > 0
}

// WithFallback returns a new Ad built from fresh, where every empty field is
// taken from orig. ID and URL always come from orig.
func (a Ad) WithFallback(orig Ad) Ad {
	out := Ad{
		ID:          orig.ID,
		URL:         orig.URL,
		Title:       firstNonEmpty(a.Title, orig.Title),
		Price:       firstNonEmpty(a.Price, orig.Price),
		Location:    firstNonEmpty(a.Location, orig.Location),
		Posted:      firstNonEmpty(a.Posted, orig.Posted),
		Description: firstNonEmpty(a.Description, orig.Description),
	}
	if len(a.Images) > 0 {
		out.Images = copyImages(a.Images)
	} else {
		out.Images = copyImages(orig.Images)
	}
	return out
}

// Clone returns a copy that shares no memory with a.
func (a Ad) Clone() Ad {
	a.Images = copyImages(a.Images)
	return a
}

func copyImages(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	n := len(images)
	if n > MaxImages {
		n = MaxImages
	}
	out := make([]string, n)
	copy(out, images[:n])
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
