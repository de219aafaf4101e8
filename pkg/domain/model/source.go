package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// SourceRef identifies one repository whose stargazer history is fetched
type SourceRef struct {
	Owner string // Repository owner
	Name  string // Repository name
}

// ParseSourceRef parses "owner/name"
func ParseSourceRef(s string) (SourceRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return SourceRef{}, goerr.New("malformed source, expected owner/name",
			goerr.V("source", s),
			goerr.T(types.ErrTagConfig),
		)
	}

	return SourceRef{Owner: owner, Name: name}, nil
}

// ParseSourceRefs parses a source list. Duplicates are dropped keeping the first occurrence.
func ParseSourceRefs(list []string) ([]SourceRef, error) {
	seen := make(map[string]struct{}, len(list))
	refs := make([]SourceRef, 0, len(list))

	for _, s := range list {
		ref, err := ParseSourceRef(s)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[ref.FullName()]; ok {
			continue
		}
		seen[ref.FullName()] = struct{}{}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return nil, goerr.New("no source configured", goerr.T(types.ErrTagConfig))
	}

	return refs, nil
}

// FullName returns "owner/name", the grouping key of the source in the sink
func (r SourceRef) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r SourceRef) String() string {
	return r.FullName()
}
