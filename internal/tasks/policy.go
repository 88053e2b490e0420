package tasks

import (
	"strings"
	"unicode/utf8"
)

const maxTitleLen = 100

// Input is a decoded request body. Absent and null keys are both unset.
type Input struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[string]
}

// PrepareCreate validates a create request. New tasks always start pending,
// so a status in the body is ignored.
func PrepareCreate(in Input) (NewTask, error) {
	raw, _ := in.Title.Get()
	title := strings.TrimSpace(raw)
	if title == "" {
		return NewTask{}, &ValidationError{Field: "titulo", Message: msgTitleRequired}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return NewTask{}, &ValidationError{Field: "titulo", Message: msgTitleTooLong}
	}

	nt := NewTask{Title: title}
	if desc, ok := in.Description.Get(); ok {
		if d := strings.TrimSpace(desc); d != "" {
			nt.Description = &d
		}
	}
	return nt, nil
}

// PrepareUpdate turns a request body into a partial update. Either status
// transition is allowed.
func PrepareUpdate(in Input) (Fields, error) {
	var f Fields

	if raw, ok := in.Title.Get(); ok {
		title := strings.TrimSpace(raw)
		if title == "" {
			return Fields{}, &ValidationError{Field: "titulo", Message: msgTitleEmpty}
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return Fields{}, &ValidationError{Field: "titulo", Message: msgTitleTooLong}
		}
		f.Title = Some(title)
	}

	if desc, ok := in.Description.Get(); ok {
		f.Description = Some(strings.TrimSpace(desc))
	}

	if raw, ok := in.Status.Get(); ok {
		status := Status(strings.ToLower(strings.TrimSpace(raw)))
		if !status.Valid() {
			return Fields{}, &ValidationError{Field: "status", Message: msgInvalidStatus}
		}
		f.Status = Some(status)
	}

	if f.IsEmpty() {
		return Fields{}, ErrNoFields
	}
	return f, nil
}
