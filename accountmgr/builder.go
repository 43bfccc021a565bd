package accountmgr

// Tag and field names recognized inside an account manager list.
const (
	TagList           = "projects"
	TagAccountManager = "account_manager"
	TagImage          = "image"

	FieldName        = "name"
	FieldURL         = "url"
	FieldDescription = "description"
)

// AccountManager is one entry of an account manager list.
type AccountManager struct {
	Name        string `json:"name" xml:"name"`
	URL         string `json:"url,omitempty" xml:"url,omitempty"`
	Description string `json:"description,omitempty" xml:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty" xml:"image,omitempty"`
}

// Equal reports whether all four fields match.
func (m AccountManager) Equal(other AccountManager) bool {
	return m == other
}

// IsZero reports whether no field is set.
func (m AccountManager) IsZero() bool {
	return m == AccountManager{}
}

// Builder assembles an AccountManager field by field.
type Builder struct {
	am AccountManager
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the assembled record.
func (b *Builder) Build() AccountManager {
	return b.am
}

// Name sets the display name.
func (b *Builder) Name(name string) *Builder {
	b.am.Name = name
	return b
}

// URL sets the account manager URL.
func (b *Builder) URL(url string) *Builder {
	b.am.URL = url
	return b
}

// Description sets the free-form description.
func (b *Builder) Description(desc string) *Builder {
	b.am.Description = desc
	return b
}

// ImageURL sets the logo/image URL.
func (b *Builder) ImageURL(url string) *Builder {
	b.am.ImageURL = url
	return b
}

// Set assigns value to the field addressed by an element name.
// It returns false when tag is not one of the recognized field tags.
func (b *Builder) Set(tag, value string) bool {
	switch tag {
	case FieldName:
		b.am.Name = value
	case FieldURL:
		b.am.URL = value
	case FieldDescription:
		b.am.Description = value
	case TagImage:
		b.am.ImageURL = value
	default:
		return false
	}
	return true
}

// IsField reports whether tag maps to an AccountManager field.
func IsField(tag string) bool {
	switch tag {
	case FieldName, FieldURL, FieldDescription, TagImage:
		return true
	}
	return false
}
