package access

import (
	"sort"

	"github.com/approvenow/server/internal/model"
)

// Capability is an atomic permission granted by a role.
type Capability string

const (
	CapViewRequests           Capability = "view_requests"
	CapViewTemplates          Capability = "view_templates"
	CapReceiveNotifications   Capability = "receive_notifications"
	CapDownloadApproved       Capability = "download_approved"
	CapCreateRequest          Capability = "create_request"
	CapApproveAssigned        Capability = "approve_assigned"
	CapEditOwnRequest         Capability = "edit_own_request"
	CapManageWorkspaceSetting Capability = "manage_workspace_settings"
	CapManageMembers          Capability = "manage_members"
	CapManageTemplates        Capability = "manage_templates"
	CapDeleteWorkspace        Capability = "delete_workspace"
	CapManageBilling          Capability = "manage_billing"
)

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet struct {
	caps map[Capability]struct{}
}

func newSet(groups ...[]Capability) CapabilitySet {
	s := CapabilitySet{caps: make(map[Capability]struct{})}
	for _, g := range groups {
		for _, c := range g {
			s.caps[c] = struct{}{}
		}
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s.caps[c]
	return ok
}

// Len returns the number of capabilities.
func (s CapabilitySet) Len() int {
	return len(s.caps)
}

// Strings returns the capability tags sorted.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s.caps))
	for c := range s.caps {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

var (
	viewerCaps = []Capability{CapViewRequests, CapViewTemplates, CapReceiveNotifications, CapDownloadApproved}
	editorCaps = []Capability{CapCreateRequest, CapApproveAssigned, CapEditOwnRequest}
	adminCaps  = []Capability{CapManageWorkspaceSetting, CapManageMembers, CapManageTemplates}
	ownerCaps  = []Capability{CapDeleteWorkspace, CapManageBilling}

	viewerSet = newSet(viewerCaps)
	editorSet = newSet(viewerCaps, editorCaps)
	adminSet  = newSet(viewerCaps, editorCaps, adminCaps)
	ownerSet  = newSet(viewerCaps, editorCaps, adminCaps, ownerCaps)
	emptySet  = newSet()
)

// CapabilitiesOf returns the fixed capability set of a known role.
// The second result is false for roles outside the enumeration.
func CapabilitiesOf(role model.Role) (CapabilitySet, bool) {
	switch role {
	case model.RoleViewer:
		return viewerSet, true
	case model.RoleEditor:
		return editorSet, true
	case model.RoleAdmin:
		return adminSet, true
	case model.RoleOwner:
		return ownerSet, true
	default:
		return emptySet, false
	}
}

// Describe returns the human-readable permission lines shown to invitees.
func Describe(role model.Role) []string {
	switch role {
	case model.RoleOwner:
		return []string{
			"Full control over the workspace",
			"Manage members and their roles",
			"Manage templates and workspace settings",
			"Create, approve and download requests",
			"Delete the workspace and manage billing",
		}
	case model.RoleAdmin:
		return []string{
			"Manage members and their roles",
			"Manage templates and workspace settings",
			"Create, approve and download requests",
		}
	case model.RoleEditor:
		return []string{
			"Create and edit your own requests",
			"Approve requests assigned to you",
			"View requests and templates",
			"Download approved documents",
		}
	default:
		return []string{
			"View requests and templates",
			"Receive notifications",
			"Download approved documents",
		}
	}
}

// CanAssign reports whether a member with role actor may grant target to someone.
// Admins grant up to admin; only owners grant owner.
func CanAssign(actor, target model.Role) bool {
	if !target.IsValid() {
		return false
	}
	switch actor {
	case model.RoleOwner:
		return true
	case model.RoleAdmin:
		return target != model.RoleOwner
	default:
		return false
	}
}
