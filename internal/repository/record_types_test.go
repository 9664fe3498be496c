package repository

import (
	"testing"
	"time"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
)

func TestApproval_Tag(t *testing.T) {
	a := Approval{Actor: "Asha", Role: flow.RoleTSM}
	if got := a.Tag(); got != "Asha (TSM)" {
		t.Errorf("Tag() = %q, want %q", got, "Asha (TSM)")
	}
}

func TestRecord_HasApprovalBy(t *testing.T) {
	rec := &Record{
		Approvals: []Approval{
			{Actor: "Asha", Role: flow.RoleTA, At: time.Now()},
			{Actor: "Kiran", Role: flow.RoleTSM, At: time.Now()},
		},
	}

	tests := []struct {
		name  string
		actor string
		role  flow.Role
		want  bool
	}{
		{"exact pair present", "Kiran", flow.RoleTSM, true},
		{"same actor different role", "Kiran", flow.RoleAM, false},
		{"same role different actor", "Murali", flow.RoleTSM, false},
		{"absent pair", "Dana", flow.RoleCM, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec.HasApprovalBy(tt.actor, tt.role); got != tt.want {
				t.Errorf("HasApprovalBy(%q, %s) = %v, want %v", tt.actor, tt.role, got, tt.want)
			}
		})
	}
}

func TestRecord_ApprovedTags(t *testing.T) {
	rec := &Record{
		Approvals: []Approval{
			{Actor: "Asha", Role: flow.RoleTA},
			{Actor: "Kiran", Role: flow.RoleTSM},
		},
	}
	tags := rec.ApprovedTags()
	if len(tags) != 2 || tags[0] != "Asha (TA)" || tags[1] != "Kiran (TSM)" {
		t.Errorf("ApprovedTags() = %v", tags)
	}
}

func TestFieldPatch_IsEmpty(t *testing.T) {
	if !(FieldPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}

	name := "Asha"
	if (FieldPatch{EmployeeName: &name}).IsEmpty() {
		t.Error("patch with a field should not be empty")
	}

	products := []ProductLine{}
	if (FieldPatch{Products: &products}).IsEmpty() {
		t.Error("patch replacing products with an empty list is still a patch")
	}
}
