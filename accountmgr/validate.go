package accountmgr

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationDetail provides structured validation info.
type ValidationDetail struct {
	Index   int
	Field   string
	Message string
}

// ValidationError groups structural problems found in a list.
type ValidationError struct {
	Issues  []string
	Details []ValidationDetail
}

func (v *ValidationError) Error() string {
	return "account manager validation failed: " + strings.Join(v.Issues, "; ")
}

// Validate checks that every record has a name and an absolute http(s) URL,
// that image URLs are absolute, and that names and URLs are unique.
func Validate(list []AccountManager) error {
	var issues []string
	var details []ValidationDetail
	add := func(idx int, field, msg string) {
		issues = append(issues, fmt.Sprintf("%s: %s", labelOrIndex(list[idx].Name, idx), msg))
		details = append(details, ValidationDetail{Index: idx, Field: field, Message: msg})
	}

	names := make(map[string]int)
	urls := make(map[string]int)
	for i, am := range list {
		name := strings.TrimSpace(am.Name)
		if name == "" {
			add(i, FieldName, "missing name")
		} else if prev, ok := names[name]; ok {
			add(i, FieldName, fmt.Sprintf("duplicate name (also #%d)", prev))
		} else {
			names[name] = i
		}

		u := strings.TrimSpace(am.URL)
		switch {
		case u == "":
			add(i, FieldURL, "missing url")
		case !isWebURL(u):
			add(i, FieldURL, fmt.Sprintf("url %q is not an absolute http(s) URL", u))
		default:
			key := strings.TrimRight(strings.ToLower(u), "/")
			if prev, ok := urls[key]; ok {
				add(i, FieldURL, fmt.Sprintf("duplicate url (also #%d)", prev))
			} else {
				urls[key] = i
			}
		}

		if img := strings.TrimSpace(am.ImageURL); img != "" && !isWebURL(img) {
			add(i, TagImage, fmt.Sprintf("image %q is not an absolute http(s) URL", img))
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return &Error{
		Type:    ErrValidate,
		Message: "validation failed",
		Err:     &ValidationError{Issues: issues, Details: details},
	}
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func labelOrIndex(name string, idx int) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fmt.Sprintf("#%d", idx)
}
