// Package tenant models the tenant-scope identifiers carried on every
// request: the per-call user/organization/group identifiers used to filter
// vector search and the semantic cache.
package tenant

// Scope is a closed sum of the three mutually exclusive cache scopes plus a
// "none" case, replacing the dynamically-typed payload dict of the source
// with a tagged structure per identifier combination.
type Scope interface {
	isScope()
}

// UserOnly scopes the cache to a single user: only user_id was present on
// the request.
type UserOnly struct {
	UserID int64
}

func (UserOnly) isScope() {}

// Groups scopes the cache to one or more groups, with no organization.
type Groups struct {
	GroupIDs []int64
}

func (Groups) isScope() {}

// OrgGroups scopes the cache to an organization and its groups.
type OrgGroups struct {
	OrganizationID int64
	GroupIDs       []int64
}

func (OrgGroups) isScope() {}

// NoScope carries no identifiers; cache operations short-circuit on it.
type NoScope struct{}

func (NoScope) isScope() {}

// Request bundles the raw tenant identifiers read off a Chat call's
// metadata, before they are narrowed into a Scope or a search filter.
type Request struct {
	UserID         int64 // 0 means absent
	HasUserID      bool
	OrganizationID int64
	HasOrgID       bool
	GroupIDs       []int64
}

// CacheScope derives the §4.4 scope variant from a request's identifiers.
func CacheScope(r Request) Scope {
	switch {
	case r.HasOrgID && len(r.GroupIDs) > 0:
		return OrgGroups{OrganizationID: r.OrganizationID, GroupIDs: r.GroupIDs}
	case len(r.GroupIDs) > 0:
		return Groups{GroupIDs: r.GroupIDs}
	case r.HasUserID:
		return UserOnly{UserID: r.UserID}
	default:
		return NoScope{}
	}
}

// DocFilter is the §4.3 tenant filter applied to document vector search.
// Organization id is deliberately excluded: documents belong to groups, and
// a group belongs to at most one organization.
type DocFilter struct {
	GroupIDs []int64 // non-empty: match group_id ∈ GroupIDs
	UserID   int64   // used only when GroupIDs is empty
	HasUser  bool
	Empty    bool // neither group nor user present: caller must short-circuit
}

// DocFilterFor builds the §4.3 filter-priority rule from raw request fields.
func DocFilterFor(groupIDs []int64, userID int64, hasUserID bool) DocFilter {
	if len(groupIDs) > 0 {
		return DocFilter{GroupIDs: groupIDs}
	}
	if hasUserID {
		return DocFilter{UserID: userID, HasUser: true}
	}
	return DocFilter{Empty: true}
}
