package service

import (
	"net/url"
	"strings"
)

// VoterEvidence is the list of teacher ids a client says it has already
// rated. It is supplied by the client (a cookie in practice) and handed back
// updated after every accepted vote.
//
// This is a soft deterrent, not a security boundary: a client that drops the
// evidence is indistinguishable from a first-time voter.
type VoterEvidence struct {
	ids []string
}

// ParseVoterEvidence decodes the comma-separated form. Entries are
// URL-unescaped and trimmed; blanks and repeats are dropped. Garbage never
// fails parsing, it only yields less evidence.
func ParseVoterEvidence(raw string) VoterEvidence {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" {
		return VoterEvidence{}
	}
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if unescaped, err := url.QueryUnescape(id); err == nil {
			id = strings.TrimSpace(unescaped)
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return VoterEvidence{ids: ids}
}

// Has reports whether the evidence already lists teacherID.
func (e VoterEvidence) Has(teacherID string) bool {
	for _, id := range e.ids {
		if id == teacherID {
			return true
		}
	}
	return false
}

// With returns evidence that also lists teacherID. The receiver is unchanged.
func (e VoterEvidence) With(teacherID string) VoterEvidence {
	if teacherID == "" || e.Has(teacherID) {
		return e
	}
	ids := make([]string, len(e.ids), len(e.ids)+1)
	copy(ids, e.ids)
	return VoterEvidence{ids: append(ids, teacherID)}
}

// IDs returns a copy of the listed teacher ids in the order they were added.
func (e VoterEvidence) IDs() []string {
	return append([]string{}, e.ids...)
}

// Len returns the number of listed teachers.
func (e VoterEvidence) Len() int {
	return len(e.ids)
}

// Encode renders the cookie form: escaped ids joined by commas.
func (e VoterEvidence) Encode() string {
	parts := make([]string, len(e.ids))
	for i, id := range e.ids {
		parts[i] = url.QueryEscape(id)
	}
	return strings.Join(parts, ",")
}
