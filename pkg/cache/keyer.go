package cache

// Keyer derives cache keys for every kind of cached entry.
type Keyer interface {
	// FeedKey returns the key for a downloaded iCalendar feed.
	FeedKey(url string) string

	// LayoutKey returns the key for a layout computed from events whose
	// canonical encoding hashes to eventsHash.
	LayoutKey(eventsHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the axis settings that are copied into a layout.
type LayoutKeyOpts struct {
	Title  string  `json:"title,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	Origin string  `json:"origin,omitempty"`
	Span   float64 `json:"span,omitempty"`
}

// ArtifactKeyOpts holds the render settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	Document      bool    `json:"document,omitempty"`
	FrameWidth    float64 `json:"frame_width,omitempty"`
	PixelsPerUnit float64 `json:"pixels_per_unit,omitempty"`
	Scale         float64 `json:"scale,omitempty"`
	Columns       int     `json:"columns,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FeedKey implements Keyer.
func (DefaultKeyer) FeedKey(url string) string {
	return hashKey("feed", url)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(eventsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", eventsHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
