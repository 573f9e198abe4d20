package model

import (
	"slices"
	"testing"
)

func TestPermits(t *testing.T) {
	tests := []struct {
		role     string
		op       Operation
		expected bool
	}{
		{RoleManager, OpDecideRequest, true},
		{RoleStorekeeper, OpDecideRequest, false},
		{RoleSupervisor, OpDecideRequest, false},
		{RoleStorekeeper, OpIssueRequest, true},
		{RoleSupervisor, OpIssueRequest, false},
		{RoleSupervisor, OpCreateRequest, true},
		{RoleNightSupervisor, OpCreateRequest, true},
		{RoleStorekeeper, OpCreateRequest, false},
		{RoleSupervisor, OpReceiveRequest, true},
		{RoleStorekeeper, OpTransferStock, true},
		{RoleSupervisor, OpTransferStock, false},
		{RoleNightSupervisor, OpListInventory, true},
		{RoleStorekeeper, OpManageUsers, false},
		// Unknown roles and operations fail closed.
		{"unknown", OpListInventory, false},
		{RoleManager, "unknown", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got := Permits(tt.role, tt.op)
		if got != tt.expected {
			t.Errorf("Permits(%q, %q) = %v, want %v", tt.role, tt.op, got, tt.expected)
		}
	}
}

func TestCoversRegion(t *testing.T) {
	tests := []struct {
		actor    Actor
		region   string
		expected bool
	}{
		{Actor{Role: RoleManager}, "OPD", true},
		{Actor{Role: RoleSupervisor, Regions: []string{"OPD", "ER"}}, "ER", true},
		{Actor{Role: RoleNightSupervisor, Regions: []string{"OPD"}}, "OPD", true},
		{Actor{Role: RoleSupervisor, Regions: []string{"OPD"}}, "ICU", false},
		{Actor{Role: RoleStorekeeper, Regions: []string{"OPD"}}, "OPD", false},
		{Actor{Role: RoleSupervisor}, "", false},
	}

	for _, tt := range tests {
		got := tt.actor.CoversRegion(tt.region)
		if got != tt.expected {
			t.Errorf("%+v.CoversRegion(%q) = %v, want %v", tt.actor, tt.region, got, tt.expected)
		}
	}
}

func TestParseRegions(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"", nil},
		{"OPD", []string{"OPD"}},
		{"OPD, ER ,ICU", []string{"OPD", "ER", "ICU"}},
		{"OPD,,OPD,ER", []string{"OPD", "ER"}},
	}

	for _, tt := range tests {
		got := ParseRegions(tt.in)
		if !slices.Equal(got, tt.expected) {
			t.Errorf("ParseRegions(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}

	if got := JoinRegions([]string{" ER", "OPD", "ER"}); got != "ER,OPD" {
		t.Errorf("JoinRegions = %q, want %q", got, "ER,OPD")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short1", true},
		{"no-digits-here", true},
		{"12345678", false},
		{"a-valid-password-1", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
