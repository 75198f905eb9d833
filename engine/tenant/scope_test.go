package tenant

import (
	"reflect"
	"testing"
)

func TestCacheScope(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want Scope
	}{
		{"org+groups", Request{HasOrgID: true, OrganizationID: 7, GroupIDs: []int64{1, 2}}, OrgGroups{OrganizationID: 7, GroupIDs: []int64{1, 2}}},
		{"groups only", Request{GroupIDs: []int64{10}}, Groups{GroupIDs: []int64{10}}},
		{"user only", Request{HasUserID: true, UserID: 42}, UserOnly{UserID: 42}},
		{"none", Request{}, NoScope{}},
		{"org without groups falls back to user", Request{HasOrgID: true, OrganizationID: 7, HasUserID: true, UserID: 1}, UserOnly{UserID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CacheScope(tc.req)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("CacheScope(%+v) = %#v, want %#v", tc.req, got, tc.want)
			}
		})
	}
}

func TestDocFilterFor(t *testing.T) {
	f := DocFilterFor([]int64{1, 2}, 0, false)
	if len(f.GroupIDs) != 2 || f.HasUser || f.Empty {
		t.Fatalf("expected group filter, got %+v", f)
	}

	f = DocFilterFor(nil, 9, true)
	if !f.HasUser || f.UserID != 9 || f.Empty {
		t.Fatalf("expected user filter, got %+v", f)
	}

	f = DocFilterFor(nil, 0, false)
	if !f.Empty {
		t.Fatalf("expected empty filter, got %+v", f)
	}
}
