package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newhook/issuerun/internal/api"
)

// Kind distinguishes the three target shapes.
type Kind int

const (
	KindSingle Kind = iota
	KindSubset
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSubset:
		return "subset"
	case KindAll:
		return "all"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Target names the issues a submission runs against.
type Target struct {
	Kind Kind
	IDs  []int
}

// Single targets one issue.
func Single(id int) Target {
	return Target{Kind: KindSingle, IDs: []int{id}}
}

// Subset targets the given issues in the given order. Repeated ids are dropped.
func Subset(ids ...int) Target {
	seen := make(map[int]bool, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return Target{Kind: KindSubset, IDs: unique}
}

// All targets every open issue of the repository, as resolved by the server.
func All() Target {
	return Target{Kind: KindAll}
}

// Request is the batch call this target compiles to. A single issue is a
// subset of one.
func (t Target) Request() api.BatchRequest {
	if t.Kind == KindAll {
		return api.BatchRequest{All: true, Issues: []int{}}
	}
	issues := make([]int, len(t.IDs))
	copy(issues, t.IDs)
	return api.BatchRequest{Issues: issues}
}

func (t Target) String() string {
	if t.Kind == KindAll {
		return "all"
	}
	parts := make([]string, len(t.IDs))
	for i, id := range t.IDs {
		parts[i] = "#" + strconv.Itoa(id)
	}
	return t.Kind.String() + "[" + strings.Join(parts, ",") + "]"
}
