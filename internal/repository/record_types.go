package repository

import (
	"fmt"
	"time"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
)

// ── Domain types for liquidation records ─────────────────────────────────────

// RecordKey uniquely identifies a liquidation record.
type RecordKey struct {
	PhoneNumber string // opaque actor key, not validated as a phone format
	RecordDate  string // YYYY-MM-DD
}

func (k RecordKey) String() string {
	return k.PhoneNumber + "/" + k.RecordDate
}

// ProductLine is one product row on a record.
type ProductLine struct {
	Family         string `json:"family"`
	ProductName    string `json:"product_name"`
	SKU            string `json:"sku"`
	OpeningStock   int64  `json:"opening_stock"`
	LiquidationQty int64  `json:"liquidation_qty"`
}

// Approval is one structured entry in a record's approval trail.
// Duplicate detection compares (Actor, Role) pairs, never the rendered
// display tag.
type Approval struct {
	Actor string    `json:"actor"`
	Role  flow.Role `json:"role"`
	At    time.Time `json:"at"`
}

// Tag renders the display form used in edited_by stamps and the
// approved_by response field.
func (a Approval) Tag() string {
	return fmt.Sprintf("%s (%s)", a.Actor, a.Role)
}

// Matches reports whether a and b are the same (actor, role) pair.
func (a Approval) Matches(actor string, role flow.Role) bool {
	return a.Actor == actor && a.Role == role
}

// Record is a liquidation-tracking entity keyed by
// (phone_number, record_date).
type Record struct {
	PhoneNumber  string
	RecordDate   string
	EmployeeName string
	HQ           string
	Zone         string
	Area         string
	Products     []ProductLine
	Status       flow.Status
	Approvals    []Approval
	EditedBy     *string
	EditedAt     *time.Time
	CreatedAt    time.Time
}

// Key returns the record's identity pair.
func (r *Record) Key() RecordKey {
	return RecordKey{PhoneNumber: r.PhoneNumber, RecordDate: r.RecordDate}
}

// HasApprovalBy reports whether the trail already contains an entry
// for the (actor, role) pair.
func (r *Record) HasApprovalBy(actor string, role flow.Role) bool {
	for _, a := range r.Approvals {
		if a.Matches(actor, role) {
			return true
		}
	}
	return false
}

// ApprovedTags renders the trail as display tags, oldest first.
func (r *Record) ApprovedTags() []string {
	tags := make([]string, len(r.Approvals))
	for i, a := range r.Approvals {
		tags[i] = a.Tag()
	}
	return tags
}

// FieldPatch is the whitelisted set of editable descriptive fields.
// Nil pointers are left untouched; Products, when present, replaces
// the record's entire product list.
type FieldPatch struct {
	EmployeeName *string
	HQ           *string
	Zone         *string
	Area         *string
	Products     *[]ProductLine
}

// IsEmpty reports whether the patch touches no field.
func (p FieldPatch) IsEmpty() bool {
	return p.EmployeeName == nil && p.HQ == nil && p.Zone == nil &&
		p.Area == nil && p.Products == nil
}

// Filter narrows List results. Nil members are ignored. PhoneNumbers,
// when non-nil, restricts results to those actor keys (hierarchy
// visibility scoping); an empty non-nil slice matches nothing.
type Filter struct {
	Status       *flow.Status
	Zone         *string
	FromDate     *string
	ToDate       *string
	PhoneNumbers []string
}
