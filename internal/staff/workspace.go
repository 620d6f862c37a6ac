package staff

// Workspace describes one entry on the role selection screen.
type Workspace struct {
	Role        Role   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

var workspaces = []Workspace{
	{Role: RoleWaiter, Title: "Waiter Interface", Description: "Table management & ordering", Path: "/waiter"},
	{Role: RoleKitchen, Title: "Kitchen Display", Description: "Order preparation view", Path: "/login/kitchen"},
	{Role: RoleAdmin, Title: "Administration", Description: "System control panel", Path: "/login/admin"},
}

var homePaths = map[Role]string{
	RoleWaiter:  "/waiter/tables",
	RoleKitchen: "/kitchen",
	RoleAdmin:   "/admin",
}

// Workspaces lists the workspaces in display order.
func Workspaces() []Workspace {
	out := make([]Workspace, len(workspaces))
	copy(out, workspaces)
	return out
}

// HomePath is where a freshly signed-in member of role lands.
func HomePath(role Role) string {
	if p, ok := homePaths[role]; ok {
		return p
	}
	return "/"
}
