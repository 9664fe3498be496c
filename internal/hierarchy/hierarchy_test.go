package hierarchy

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
)

func testTable() *Table {
	return &Table{
		Zones: []Zone{
			{
				Name: "SZ",
				ZM:   Person{Name: "Zonal One", Mobile: "9000000001"},
				Areas: []Area{
					{
						Name: "TG-CAP",
						AM:   Person{Name: "Area One", Mobile: "9000000011"},
						TSMs: []TSM{
							{
								Person: Person{Name: "TSM One", Mobile: "9000000111"},
								TAs: []Person{
									{Name: "TA One", Mobile: "9111111111"},
									{Name: "TA Two", Mobile: "9122222222"},
								},
							},
							{
								Person: Person{Name: "TSM Two", Mobile: "9000000222"},
								TAs: []Person{
									{Name: "TA Three", Mobile: "9133333333"},
								},
							},
						},
					},
				},
			},
			{
				Name: "KAZ",
				ZM:   Person{Name: "Zonal Two", Mobile: "9000000002"},
				Areas: []Area{
					{
						Name: "KA1",
						AM:   Person{Name: "Area Two", Mobile: "9000000022"},
						TSMs: []TSM{
							{
								Person: Person{Name: "TSM Three", Mobile: "9000000333"},
								TAs: []Person{
									{Name: "TA Four", Mobile: "9144444444"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestSubordinateActorKeys(t *testing.T) {
	table := testTable()

	tests := []struct {
		name   string
		viewer string
		role   flow.Role
		want   []string
	}{
		{
			name:   "TSM sees own TAs only",
			viewer: "9000000111",
			role:   flow.RoleTSM,
			want:   []string{"9111111111", "9122222222"},
		},
		{
			name:   "AM sees all TAs in the area",
			viewer: "9000000011",
			role:   flow.RoleAM,
			want:   []string{"9111111111", "9122222222", "9133333333"},
		},
		{
			name:   "ZM sees all TAs in the zone",
			viewer: "9000000001",
			role:   flow.RoleZM,
			want:   []string{"9111111111", "9122222222", "9133333333"},
		},
		{
			name:   "NSM sees every TA",
			viewer: "whatever",
			role:   flow.RoleNSM,
			want:   []string{"9111111111", "9122222222", "9133333333", "9144444444"},
		},
		{
			name:   "CM sees every TA",
			viewer: "whatever",
			role:   flow.RoleCM,
			want:   []string{"9111111111", "9122222222", "9133333333", "9144444444"},
		},
		{
			name:   "unknown viewer sees nothing",
			viewer: "0000000000",
			role:   flow.RoleTSM,
			want:   []string{},
		},
		{
			name:   "TA role supervises nobody",
			viewer: "9111111111",
			role:   flow.RoleTA,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.SubordinateActorKeys(tt.viewer, tt.role)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SubordinateActorKeys(%q, %s) = %v, want %v", tt.viewer, tt.role, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	content := `
zones:
  - name: SZ
    zm:
      name: Zonal One
      mobile: "9000000001"
    areas:
      - name: TG-CAP
        am:
          name: Area One
          mobile: "9000000011"
        tsms:
          - name: TSM One
            mobile: "9000000111"
            tas:
              - name: TA One
                mobile: "9111111111"
`
	path := filepath.Join(t.TempDir(), "hierarchy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	got := table.SubordinateActorKeys("9000000111", flow.RoleTSM)
	want := []string{"9111111111"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after Load, SubordinateActorKeys = %v, want %v", got, want)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if got := table.SubordinateActorKeys("x", flow.RoleNSM); len(got) != 0 {
		t.Errorf("empty table should scope to nothing, got %v", got)
	}
}
