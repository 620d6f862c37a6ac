package staff

import "strings"

// DemoStaff returns the roster the terminals ship with before a real
// directory is provisioned.
func DemoStaff() []Identity {
	return []Identity{
		{ID: "7d2c8a4e-53f1-4b8e-9a57-1f0c6a3b9e01", Name: "Rahul", Role: RoleWaiter, PIN: "1234"},
		{ID: "c4e1b6f2-0a9d-4e7b-8c35-6d2f9a1e7b02", Name: "Priya", Role: RoleWaiter, PIN: "2345"},
		{ID: "5b9f3d17-8e2a-4c64-b1d0-3a7e5c9f2d03", Name: "Arjun", Role: RoleKitchen, PIN: "3456"},
		{ID: "e8a2f6c9-4d1b-47a3-9e52-0b6c8d3f1a04", Name: "Meera", Role: RoleAdmin, PIN: "9999"},
	}
}

// DemoHint suggests the demo names available for role, e.g.
// "Try 'Rahul' or 'Priya'". It is empty when the roster has none.
func DemoHint(role Role) string {
	var names []string
	for _, id := range DemoStaff() {
		if id.Role == role {
			names = append(names, "'"+id.Name+"'")
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Try " + strings.Join(names, " or ")
}
