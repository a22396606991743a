package cnst

// Seeded role names, most privileged first
const (
	RoleAdmin     = "admin"
	RoleCorporate = "corporate"
	RoleRegional  = "regional"
	RoleBranch    = "branch"
	RoleUser      = "user"

	// RoleDefault is the least privileged seeded role, which accounts registered
	// without a role receive until a less privileged one is created
	RoleDefault = RoleUser
)

// PermissionAll grants every permission
const PermissionAll = "all"

// Resource names as they appear in routes and permission keys
const (
	ResContinents  = "continents"
	ResCountries   = "countries"
	ResStates      = "states"
	ResDistricts   = "districts"
	ResAds         = "ads"
	ResGalleries   = "galleries"
	ResTerms       = "terms"
	ResSocialLinks = "social-links"
	ResFeedback    = "feedback"
)

const (
	PermRolesManage    = "roles.manage"
	PermAccountsManage = "accounts.manage"
)

// LocationResources are ordered parent first
var LocationResources = []string{ResContinents, ResCountries, ResStates, ResDistricts}

var ContentResources = []string{ResAds, ResGalleries, ResTerms, ResSocialLinks, ResFeedback}

// PermRead is the permission key required to list or fetch a resource
func PermRead(resource string) string { return resource + ".read" }

// PermWrite is the permission key required to create, update, delete or toggle a resource
func PermWrite(resource string) string { return resource + ".write" }

// SeedRole describes a role created at first boot
type SeedRole struct {
	Name        string
	Description string
	Level       int
	Permissions []string
}

// SeedRoles returns the five fixed roles in descending privilege order
func SeedRoles() []SeedRole {
	readAll := func(resources ...string) []string {
		out := make([]string, 0, len(resources))
		for _, r := range resources {
			out = append(out, PermRead(r))
		}
		return out
	}
	writeAll := func(resources ...string) []string {
		out := make([]string, 0, len(resources))
		for _, r := range resources {
			out = append(out, PermWrite(r))
		}
		return out
	}
	all := append(append([]string{}, LocationResources...), ContentResources...)

	return []SeedRole{
		{Name: RoleAdmin, Description: "Platform administrator", Level: 1, Permissions: []string{PermissionAll}},
		{
			Name:        RoleCorporate,
			Description: "Corporate tenant manager",
			Level:       2,
			Permissions: append(readAll(all...), writeAll(ContentResources...)...),
		},
		{
			Name:        RoleRegional,
			Description: "Regional manager",
			Level:       3,
			Permissions: append(readAll(all...), writeAll(ResCountries, ResStates, ResDistricts)...),
		},
		{
			Name:        RoleBranch,
			Description: "Branch operator",
			Level:       4,
			Permissions: append(readAll(all...), writeAll(ResDistricts, ResFeedback)...),
		},
		{
			Name:        RoleUser,
			Description: "Registered user",
			Level:       5,
			Permissions: []string{PermRead(ResTerms), PermRead(ResSocialLinks), PermWrite(ResFeedback)},
		},
	}
}
