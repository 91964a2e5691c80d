package reddit

import (
	"context"
	"net/url"
	"slices"
	"strings"
)

const (
	contributorType       = "liveupdate_contributor"
	contributorInviteType = "liveupdate_contributor_invite"
)

// Contributor is a redditor with their permissions on a live thread.
type Contributor struct {
	Redditor    *Redditor
	Permissions []string
	Invited     bool
}

// LiveContributorRelationship manages the contributor list of one thread.
type LiveContributorRelationship struct {
	thread *LiveThread
}

// List returns the current contributors followed by pending invites, when the
// caller may see them.
func (rel *LiveContributorRelationship) List(ctx context.Context) ([]*Contributor, error) {
	t := rel.thread
	body, err := getPath(ctx, t.r, "live_contributors", nil, t.ID)
	if err != nil {
		return nil, err
	}
	lists, err := parseUserLists(body)
	if err != nil {
		return nil, err
	}
	var out []*Contributor
	for i, l := range lists {
		for _, child := range l.Data.Children {
			rd := NewRedditor(t.r, child.Name)
			if child.ID != "" {
				rd.lazy().set("id", strings.TrimPrefix(child.ID, "t2_"), nil)
			}
			out = append(out, &Contributor{
				Redditor:    rd,
				Permissions: child.Permissions,
				Invited:     i > 0,
			})
		}
	}
	return out, nil
}

// AcceptInvite accepts a pending contributor invite for the authenticated user.
func (rel *LiveContributorRelationship) AcceptInvite(ctx context.Context) error {
	_, err := postAction(ctx, rel.thread.r, "live_accept_invite", nil, rel.thread.ID)
	return err
}

// Leave abdicates the authenticated user's contributor role.
func (rel *LiveContributorRelationship) Leave(ctx context.Context) error {
	_, err := postAction(ctx, rel.thread.r, "live_leave", nil, rel.thread.ID)
	return err
}

// Invite invites name as a contributor. Nil permissions grant everything.
func (rel *LiveContributorRelationship) Invite(ctx context.Context, name string, permissions []string) error {
	return rel.setPermissions(ctx, "live_invite", contributorInviteType, name, permissions)
}

// UpdatePermissions replaces the permissions of an existing contributor.
func (rel *LiveContributorRelationship) UpdatePermissions(ctx context.Context, name string, permissions []string) error {
	return rel.setPermissions(ctx, "live_update_perms", contributorType, name, permissions)
}

// UpdateInvite replaces the permissions of a pending invite.
func (rel *LiveContributorRelationship) UpdateInvite(ctx context.Context, name string, permissions []string) error {
	return rel.setPermissions(ctx, "live_update_perms", contributorInviteType, name, permissions)
}

// Remove removes a contributor. The redditor's id is fetched when unknown.
func (rel *LiveContributorRelationship) Remove(ctx context.Context, rd *Redditor) error {
	return rel.removeByFullname(ctx, "live_remove_contrib", rd)
}

// RemoveInvite withdraws a pending invite.
func (rel *LiveContributorRelationship) RemoveInvite(ctx context.Context, rd *Redditor) error {
	return rel.removeByFullname(ctx, "live_remove_invite", rd)
}

func (rel *LiveContributorRelationship) setPermissions(ctx context.Context, endpoint, kind, name string, permissions []string) error {
	if name == "" {
		return newValueError("name", "must not be empty")
	}
	form := url.Values{
		"name":        {name},
		"type":        {kind},
		"permissions": {encodePermissions(permissions)},
	}
	_, err := postAction(ctx, rel.thread.r, endpoint, form, rel.thread.ID)
	return err
}

func (rel *LiveContributorRelationship) removeByFullname(ctx context.Context, endpoint string, rd *Redditor) error {
	if rd == nil {
		return newValueError("redditor", "must not be nil")
	}
	if rd.r == nil {
		rd.Bind(rel.thread.r)
	}
	fullname, err := rd.Fullname(ctx)
	if err != nil {
		return err
	}
	_, err = postAction(ctx, rel.thread.r, endpoint, url.Values{"id": {fullname}}, rel.thread.ID)
	return err
}

// encodePermissions renders a permission set: nil grants "+all", otherwise "-all"
// followed by each granted permission, sorted.
func encodePermissions(permissions []string) string {
	if permissions == nil {
		return "+all"
	}
	grants := make([]string, 0, len(permissions))
	for _, p := range permissions {
		grants = append(grants, "+"+p)
	}
	slices.Sort(grants)
	return strings.Join(append([]string{"-all"}, slices.Compact(grants)...), ",")
}
