package users

import "testing"

func TestIsAdmin(t *testing.T) {
	if (UserProfile{Role: RoleStudent}).IsAdmin() {
		t.Error("student profile reported as admin")
	}
	if (UserProfile{}).IsAdmin() {
		t.Error("empty role reported as admin")
	}
	if !(UserProfile{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin profile not reported as admin")
	}
}
